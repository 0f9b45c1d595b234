package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/relayview-io/relayview/internal/models"
)

func (suite *HandlerTestSuite) createSession(request models.AddSession) models.Session {
	require := suite.Require()

	reqBody, err := json.Marshal(request)
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateSession, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)

	body, err := io.ReadAll(res.Body)
	require.NoError(err)
	require.Equal(http.StatusCreated, res.Code, "HTTP error: %s", string(body))

	var session models.Session
	require.NoError(json.Unmarshal(body, &session))
	return session
}

func (suite *HandlerTestSuite) TestCreateGetSession() {
	require := suite.Require()
	assert := suite.Assert()

	actual := suite.createSession(models.AddSession{
		Name:        "standup-2026-08-31",
		Description: "daily standup recording",
	})

	require.Equal("standup-2026-08-31", actual.Name)
	require.Equal(TestUserID, actual.OwnerID)
	require.Equal(TestUserID, actual.CreatorID)
	require.False(actual.ID.IsZero())

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/:id", fmt.Sprintf("/%s", actual.ID.Hex()),
		suite.api.GetSession, nil,
	)
	require.NoError(err)

	body, err := io.ReadAll(res.Body)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code, "HTTP error: %s", string(body))

	var session models.Session
	require.NoError(json.Unmarshal(body, &session))
	assert.Equal(actual, session)
}

func (suite *HandlerTestSuite) TestUpdateSessionReplacesFields() {
	require := suite.Require()

	created := suite.createSession(models.AddSession{
		Name:        "standup",
		Description: "daily standup recording",
	})

	reqBody, err := json.Marshal(models.UpdateSession{Name: "retro"})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.UpdateSession, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var updated models.Session
	require.NoError(json.Unmarshal(res.Body.Bytes(), &updated))
	require.Equal("retro", updated.Name)
	require.Empty(updated.Description)
	require.Equal(created.ID, updated.ID)
	require.Equal(created.CreatorID, updated.CreatorID)
	require.True(created.CreatedDate.Equal(updated.CreatedDate))
}

func (suite *HandlerTestSuite) TestTransferSessionOwnership() {
	require := suite.Require()

	created := suite.createSession(models.AddSession{Name: "handover"})

	suite.identity = models.Identity{
		ID:      "scheduler",
		Machine: true,
		Scopes:  []string{models.ScopeImpersonateUser},
	}

	other := TestOtherUser
	reqBody, err := json.Marshal(models.UpdateSession{Name: "handover", OwnerID: &other})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.UpdateSession, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var updated models.Session
	require.NoError(json.Unmarshal(res.Body.Bytes(), &updated))
	require.Equal(TestOtherUser, updated.OwnerID)
	require.Equal("scheduler", updated.UpdatorID)
	require.Equal(TestUserID, updated.CreatorID)
}

func (suite *HandlerTestSuite) TestTransferSessionOwnershipDenied() {
	require := suite.Require()

	created := suite.createSession(models.AddSession{Name: "handover"})

	// Machine token but no impersonation scope.
	suite.identity = models.Identity{ID: "scheduler", Machine: true}

	other := TestOtherUser
	reqBody, err := json.Marshal(models.UpdateSession{Name: "handover", OwnerID: &other})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.UpdateSession, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusUnauthorized, res.Code)

	// The stored session is untouched.
	suite.identity = models.Identity{ID: TestUserID}
	_, res, err = suite.ServeRequest(
		http.MethodGet, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.GetSession, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var session models.Session
	require.NoError(json.Unmarshal(res.Body.Bytes(), &session))
	require.Equal(TestUserID, session.OwnerID)
}

func (suite *HandlerTestSuite) TestSessionNotFound() {
	require := suite.Require()

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/:id", fmt.Sprintf("/%s", "507f1f77bcf86cd799439011"),
		suite.api.GetSession, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusNotFound, res.Code)

	var apiErr models.NotFoundError
	require.NoError(json.Unmarshal(res.Body.Bytes(), &apiErr))
	require.Equal("session", apiErr.Resource)
}

func (suite *HandlerTestSuite) TestListSessionsOwnerFilter() {
	require := suite.Require()

	suite.createSession(models.AddSession{Name: "mine"})

	suite.identity = models.Identity{ID: TestOtherUser}
	suite.createSession(models.AddSession{Name: "theirs"})

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/", fmt.Sprintf("/?ownerId=%s", TestUserID),
		suite.api.ListSessions, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)
	require.Equal("1", res.Header().Get(TotalCountHeader))

	var page models.ListResponse[models.Session]
	require.NoError(json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(1, page.Metadata.Count)
	require.Equal("mine", page.Results[0].Name)
}

func (suite *HandlerTestSuite) TestDeleteSession() {
	require := suite.Require()

	created := suite.createSession(models.AddSession{Name: "doomed"})

	_, res, err := suite.ServeRequest(
		http.MethodDelete, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.DeleteSession, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var deleted models.Session
	require.NoError(json.Unmarshal(res.Body.Bytes(), &deleted))
	require.Equal(created.ID, deleted.ID)

	_, res, err = suite.ServeRequest(
		http.MethodGet, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.GetSession, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusNotFound, res.Code)
}

func (suite *HandlerTestSuite) TestSessionsFlagDisabled() {
	require := suite.Require()

	suite.api.fflags.RegisterFlag("sessions", func() bool { return false })

	reqBody, err := json.Marshal(models.AddSession{Name: "nope"})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateSession, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusMethodNotAllowed, res.Code)
}
