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

func (suite *HandlerTestSuite) createDevice(request models.AddDevice) models.Device {
	require := suite.Require()

	reqBody, err := json.Marshal(request)
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)

	body, err := io.ReadAll(res.Body)
	require.NoError(err)
	require.Equal(http.StatusCreated, res.Code, "HTTP error: %s", string(body))

	var device models.Device
	require.NoError(json.Unmarshal(body, &device))
	return device
}

func (suite *HandlerTestSuite) TestCreateGetDevice() {
	require := suite.Require()
	assert := suite.Assert()

	sessionID := primitive.NewObjectID()
	actual := suite.createDevice(models.AddDevice{
		Name:        "lobby-cam-4",
		Description: "4th floor lobby camera",
		SessionIDs:  []string{sessionID.Hex()},
	})

	require.Equal("lobby-cam-4", actual.Name)
	require.Equal([]primitive.ObjectID{sessionID}, actual.SessionIDs)
	require.Equal(TestUserID, actual.OwnerID)
	require.Equal(TestUserID, actual.CreatorID)
	require.Equal(TestUserID, actual.UpdatorID)
	require.False(actual.ID.IsZero())
	require.False(actual.CreatedDate.IsZero())
	require.Equal(actual.CreatedDate, actual.UpdatedDate)

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/:id", fmt.Sprintf("/%s", actual.ID.Hex()),
		suite.api.GetDevice, nil,
	)
	require.NoError(err)

	body, err := io.ReadAll(res.Body)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code, "HTTP error: %s", string(body))

	var device models.Device
	require.NoError(json.Unmarshal(body, &device))
	assert.Equal(actual, device)
}

func (suite *HandlerTestSuite) TestCreateDeviceDeduplicatesSessions() {
	require := suite.Require()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	device := suite.createDevice(models.AddDevice{
		Name:       "repeater",
		SessionIDs: []string{b.Hex(), a.Hex(), b.Hex()},
	})

	require.Equal([]primitive.ObjectID{b, a}, device.SessionIDs)
}

func (suite *HandlerTestSuite) TestCreateDeviceInvalidSessionID() {
	require := suite.Require()

	reqBody, err := json.Marshal(models.AddDevice{
		Name:       "bad",
		SessionIDs: []string{"not-an-id"},
	})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusBadRequest, res.Code)

	var apiErr models.ValidationError
	require.NoError(json.Unmarshal(res.Body.Bytes(), &apiErr))
	require.Equal("sessionIds", apiErr.Field)
}

func (suite *HandlerTestSuite) TestUpdateDeviceReplacesFields() {
	require := suite.Require()

	created := suite.createDevice(models.AddDevice{
		Name:        "lobby-cam-4",
		Description: "4th floor lobby camera",
		SessionIDs:  []string{primitive.NewObjectID().Hex()},
	})

	// Absent fields are cleared, not preserved.
	reqBody, err := json.Marshal(models.UpdateDevice{Name: "lobby-cam-4b"})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.UpdateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)

	body, err := io.ReadAll(res.Body)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code, "HTTP error: %s", string(body))

	var updated models.Device
	require.NoError(json.Unmarshal(body, &updated))

	require.Equal(created.ID, updated.ID)
	require.Equal("lobby-cam-4b", updated.Name)
	require.Empty(updated.Description)
	require.Empty(updated.SessionIDs)
	require.Equal(created.CreatorID, updated.CreatorID)
	require.True(created.CreatedDate.Equal(updated.CreatedDate))
	require.Equal(created.OwnerID, updated.OwnerID)
	require.False(updated.UpdatedDate.Before(created.UpdatedDate))
}

func (suite *HandlerTestSuite) TestUpdateDeviceNotFound() {
	require := suite.Require()

	reqBody, err := json.Marshal(models.UpdateDevice{Name: "ghost"})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", primitive.NewObjectID().Hex()),
		suite.api.UpdateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusNotFound, res.Code)

	var apiErr models.NotFoundError
	require.NoError(json.Unmarshal(res.Body.Bytes(), &apiErr))
	require.Equal("not found", apiErr.Error)
	require.Equal("device", apiErr.Resource)
}

func (suite *HandlerTestSuite) TestGetDeviceBadID() {
	require := suite.Require()

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/:id", "/not-an-id",
		suite.api.GetDevice, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusBadRequest, res.Code)

	var apiErr models.ValidationError
	require.NoError(json.Unmarshal(res.Body.Bytes(), &apiErr))
	require.Equal("id", apiErr.Field)
}

func (suite *HandlerTestSuite) TestCreateDeviceImpersonationDenied() {
	require := suite.Require()

	other := TestOtherUser
	reqBody, err := json.Marshal(models.AddDevice{Name: "cam", OwnerID: &other})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusUnauthorized, res.Code)
}

func (suite *HandlerTestSuite) TestCreateDeviceImpersonationAllowed() {
	require := suite.Require()

	suite.identity = models.Identity{
		ID:      "provisioner",
		Machine: true,
		Scopes:  []string{models.ScopeImpersonateUser},
	}

	other := TestOtherUser
	device := suite.createDevice(models.AddDevice{Name: "cam", OwnerID: &other})

	require.Equal(TestOtherUser, device.OwnerID)
	require.Equal("provisioner", device.CreatorID)
}

func (suite *HandlerTestSuite) TestCreateDeviceMachineSelfOwner() {
	require := suite.Require()

	suite.identity = models.Identity{
		ID:      "provisioner",
		Machine: true,
		Scopes:  []string{models.ScopeImpersonateUser},
	}

	self := "provisioner"
	reqBody, err := json.Marshal(models.AddDevice{Name: "cam", OwnerID: &self})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusBadRequest, res.Code)
}

func (suite *HandlerTestSuite) TestCreateDeviceMachineSelfOwnerWithoutScope() {
	require := suite.Require()

	// Both refusals apply here; the impersonation one wins.
	suite.identity = models.Identity{ID: "provisioner", Machine: true}

	self := "provisioner"
	reqBody, err := json.Marshal(models.AddDevice{Name: "cam", OwnerID: &self})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPost, "/", "/",
		suite.api.CreateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusUnauthorized, res.Code)
}

func (suite *HandlerTestSuite) TestUpdateDeviceOwnerBaselineIsCurrentOwner() {
	require := suite.Require()

	created := suite.createDevice(models.AddDevice{Name: "cam"})

	// A different caller may update a resource without touching its owner.
	suite.identity = models.Identity{ID: TestOtherUser}

	reqBody, err := json.Marshal(models.UpdateDevice{Name: "renamed"})
	require.NoError(err)

	_, res, err := suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.UpdateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var updated models.Device
	require.NoError(json.Unmarshal(res.Body.Bytes(), &updated))
	require.Equal(TestUserID, updated.OwnerID)
	require.Equal(TestOtherUser, updated.UpdatorID)

	// Naming the current owner explicitly is a no-op, not impersonation.
	owner := TestUserID
	reqBody, err = json.Marshal(models.UpdateDevice{Name: "renamed", OwnerID: &owner})
	require.NoError(err)

	_, res, err = suite.ServeRequest(
		http.MethodPut, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.UpdateDevice, bytes.NewBuffer(reqBody),
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)
}

func (suite *HandlerTestSuite) TestListDevicesPagination() {
	require := suite.Require()

	for i := 0; i < 30; i++ {
		suite.createDevice(models.AddDevice{Name: fmt.Sprintf("cam-%d", i)})
	}

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/", "/",
		suite.api.ListDevices, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)
	require.Equal("30", res.Header().Get(TotalCountHeader))

	var page models.ListResponse[models.Device]
	require.NoError(json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(25, page.Metadata.Count)
	require.Equal(0, page.Metadata.Skip)
	require.Equal(25, page.Metadata.Limit)
	require.Equal(int64(30), page.Metadata.Total)
	require.Len(page.Results, 25)
	require.Equal("cam-0", page.Results[0].Name)

	_, res, err = suite.ServeRequest(
		http.MethodGet, "/", "/?skip=25",
		suite.api.ListDevices, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	require.NoError(json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(5, page.Metadata.Count)
	require.Equal(25, page.Metadata.Skip)
	require.Equal(int64(30), page.Metadata.Total)
	require.Equal("cam-25", page.Results[0].Name)

	// Past the end is an empty page, not an error.
	_, res, err = suite.ServeRequest(
		http.MethodGet, "/", "/?skip=60",
		suite.api.ListDevices, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	require.NoError(json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(0, page.Metadata.Count)
	require.NotNil(page.Results)
	require.Empty(page.Results)
}

func (suite *HandlerTestSuite) TestListDevicesQueryValidation() {
	require := suite.Require()

	for _, uri := range []string{"/?skip=-1", "/?limit=0", "/?limit=101", "/?sessionId=zzz"} {
		_, res, err := suite.ServeRequest(
			http.MethodGet, "/", uri,
			suite.api.ListDevices, nil,
		)
		require.NoError(err)
		require.Equal(http.StatusBadRequest, res.Code, "uri: %s", uri)
	}
}

func (suite *HandlerTestSuite) TestListDevicesFilters() {
	require := suite.Require()

	session := primitive.NewObjectID()
	suite.createDevice(models.AddDevice{Name: "in-session", SessionIDs: []string{session.Hex()}})
	suite.createDevice(models.AddDevice{Name: "other"})

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/", fmt.Sprintf("/?sessionId=%s", session.Hex()),
		suite.api.ListDevices, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var page models.ListResponse[models.Device]
	require.NoError(json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(1, page.Metadata.Count)
	require.Equal("in-session", page.Results[0].Name)

	_, res, err = suite.ServeRequest(
		http.MethodGet, "/", fmt.Sprintf("/?ownerId=%s", TestOtherUser),
		suite.api.ListDevices, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	require.NoError(json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(0, page.Metadata.Count)
}

func (suite *HandlerTestSuite) TestDeleteDevice() {
	require := suite.Require()

	created := suite.createDevice(models.AddDevice{Name: "cam"})

	_, res, err := suite.ServeRequest(
		http.MethodDelete, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.DeleteDevice, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusOK, res.Code)

	var deleted models.Device
	require.NoError(json.Unmarshal(res.Body.Bytes(), &deleted))
	require.Equal(created.ID, deleted.ID)
	require.Equal(created.Name, deleted.Name)

	_, res, err = suite.ServeRequest(
		http.MethodGet, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.GetDevice, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusNotFound, res.Code)

	_, res, err = suite.ServeRequest(
		http.MethodDelete, "/:id", fmt.Sprintf("/%s", created.ID.Hex()),
		suite.api.DeleteDevice, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusNotFound, res.Code)
}

func (suite *HandlerTestSuite) TestDevicesFlagDisabled() {
	require := suite.Require()

	suite.api.fflags.RegisterFlag("devices", func() bool { return false })

	_, res, err := suite.ServeRequest(
		http.MethodGet, "/", "/",
		suite.api.ListDevices, nil,
	)
	require.NoError(err)
	require.Equal(http.StatusMethodNotAllowed, res.Code)
}
