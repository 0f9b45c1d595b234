package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/relayview-io/relayview/internal/models"
)

func (suite *HandlerTestSuite) createViewer(request models.AddViewer) models.Viewer {
	require := suite.Require()

	reqBody, err := json.Marshal(request)
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateViewer, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)

	body, err := io.ReadAll(res.Body)
	require.NoError(err)
	require.Equal(http.StatusCreated, res.Code, "HTTP error: %s", string(body))

	var viewer models.Viewer
	require.NoError(json.Unmarshal(body, &viewer))
	return viewer
}

func (suite *HandlerTestSuite) TestCreateGetViewer() {
	require := suite.Require()
	assert := suite.Assert()

	sessionID := primitive.NewObjectID()
	actual := suite.createViewer(models.AddViewer{
		Name:      "alice-laptop",
		SessionID: sessionID.Hex(),
	})

	require.Equal("alice-laptop", actual.Name)
	require.Equal(sessionID, actual.SessionID)
	require.Equal(TestUserID, actual.OwnerID)

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/:id", fmt.Sprintf("/%s", actual.ID.Hex()),
		suite.api.GetViewer, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var viewer models.Viewer
	require.NoError(json.Unmarshal(res.Body.Bytes(), &viewer))
	assert.Equal(actual, viewer)
}

func (suite *HandlerTestSuite) TestCreateViewerRequiresSession() {
	require := suite.Require()

	reqBody, err := json.Marshal(models.AddViewer{Name: "detached"})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateViewer, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusBadRequest, res.Code)

	var apiErr models.ValidationError
	require.NoError(json.Unmarshal(res.Body.Bytes(), &apiErr))
	require.Equal("sessionId", apiErr.Field)

	// No event for a failed mutation.
	require.Empty(suite.notifier.Events())
}

func (suite *HandlerTestSuite) TestViewerLifecycleEvents() {
	require := suite.Require()

	sessionID := primitive.NewObjectID()
	created := suite.createViewer(models.AddViewer{
		Name:      "alice-laptop",
		SessionID: sessionID.Hex(),
	})

	reqBody, err := json.Marshal(models.UpdateViewer{
		Name:      "alice-phone",
		SessionID: sessionID.Hex(),
	})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.UpdateViewer, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	_, res, err = suite.ServeRequest(
		http.MethodDelete, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.DeleteViewer, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	events := suite.notifier.Events()
	require.Len(events, 3)

	require.Equal(models.EventViewerCreated, events[0].Name)
	require.Equal(created.ID.Hex(), events[0].ViewerID)
	require.Equal(TestToken, events[0].Token)
	require.Equal("alice-laptop", events[0].Viewer.Name)

	require.Equal(models.EventViewerUpdated, events[1].Name)
	require.Equal(created.ID.Hex(), events[1].ViewerID)
	require.Equal("alice-phone", events[1].Viewer.Name)

	// The delete event carries the pre-delete snapshot.
	require.Equal(models.EventViewerDeleted, events[2].Name)
	require.Equal(created.ID.Hex(), events[2].ViewerID)
	require.Equal("alice-phone", events[2].Viewer.Name)
}

func (suite *HandlerTestSuite) TestViewerNoEventOnFailedUpdate() {
	require := suite.Require()

	reqBody, err := json.Marshal(models.UpdateViewer{
		Name:      "ghost",
		SessionID: primitive.NewObjectID().Hex(),
	})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", primitive.NewObjectID().Hex()),
		suite.api.UpdateViewer, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusNotFound, res.Code)
	require.Empty(suite.notifier.Events())
}

func (suite *HandlerTestSuite) TestUpdateViewerReattachesSession() {
	require := suite.Require()

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	created := suite.createViewer(models.AddViewer{Name: "mobile", SessionID: first.Hex()})

	reqBody, err := json.Marshal(models.UpdateViewer{Name: "mobile", SessionID: second.Hex()})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.UpdateViewer, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var updated models.Viewer
	require.NoError(json.Unmarshal(res.Body.Bytes(), &updated))
	require.Equal(second, updated.SessionID)
	require.Equal(created.CreatorID, updated.CreatorID)
}

func (suite *HandlerTestSuite) TestListViewersBySession() {
	require := suite.Require()

	watched := primitive.NewObjectID()
	suite.createViewer(models.AddViewer{Name: "watching", SessionID: watched.Hex()})
	suite.createViewer(models.AddViewer{Name: "elsewhere", SessionID: primitive.NewObjectID().Hex()})

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/", fmt.Sprintf("/?sessionId=%s", watched.Hex()),
		suite.api.ListViewers, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)
	require.Equal("1", res.Header().Get(TotalCountHeader))

	var page models.ListResponse[models.Viewer]
	require.NoError(json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(1, page.Metadata.Count)
	require.Equal("watching", page.Results[0].Name)
}

func (suite *HandlerTestSuite) TestViewersFlagDisabled() {
	require := suite.Require()

	suite.api.fflags.RegisterFlag("viewers", func() bool { return false })

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/", "/",
		suite.api.ListViewers, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusMethodNotAllowed, res.Code)
}
