package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/usercqrs/internal/command"
	"github.com/plaenen/usercqrs/internal/projection"
	"github.com/plaenen/usercqrs/internal/store"
	"github.com/plaenen/usercqrs/pkg/eventbus"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

// testFixture wires a real command handler and read model together,
// publishing through a real in-process event bus with the projection
// subscribed at Critical priority, just like the composition root does.
func testFixture(t *testing.T) *Server {
	t.Helper()

	eventStore := store.NewEventStore()
	repo := store.NewRepository(eventStore)
	readModel := projection.NewUserReadModel()

	bus := eventbus.New(eventbus.WithDeadLetterRecorder(eventStore))
	require.NoError(t, bus.Subscribe(projection.NewSubscriber(readModel)))

	handler := command.NewHandler(repo, bus)
	dispatch := eventsourcing.CommandHandlerFunc(handler.Handle)

	return NewServer(dispatch, readModel, eventStore, nil, nil)
}

func TestServer_Healthz(t *testing.T) {
	mux := testFixture(t).Routes()
	rec := doRequest(t, mux, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_DLQ_EmptyByDefault(t *testing.T) {
	mux := testFixture(t).Routes()
	rec := doRequest(t, mux, http.MethodGet, "/internal/dlq", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []dlqEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got)
}

func TestServer_Metrics_DisabledTelemetryReturnsMessage(t *testing.T) {
	mux := testFixture(t).Routes()
	rec := doRequest(t, mux, http.MethodGet, "/internal/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader).WithContext(context.Background())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestServer_RegisterThenGetUser(t *testing.T) {
	mux := testFixture(t).Routes()

	rec := doRequest(t, mux, http.MethodPost, "/users", registerUserRequest{UserID: 1, Name: "alice"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint32(1), got.ID)
	assert.Equal(t, "alice", got.Name)
}

func TestServer_RegisterUser_DuplicateID_Returns422(t *testing.T) {
	mux := testFixture(t).Routes()

	doRequest(t, mux, http.MethodPost, "/users", registerUserRequest{UserID: 1, Name: "alice"})
	rec := doRequest(t, mux, http.MethodPost, "/users", registerUserRequest{UserID: 1, Name: "bob"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServer_GetUser_NotFound(t *testing.T) {
	mux := testFixture(t).Routes()
	rec := doRequest(t, mux, http.MethodGet, "/users/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RenameUser(t *testing.T) {
	mux := testFixture(t).Routes()
	doRequest(t, mux, http.MethodPost, "/users", registerUserRequest{UserID: 1, Name: "alice"})

	rec := doRequest(t, mux, http.MethodPut, "/users", renameUserRequest{UserID: 1, NewName: "alicia"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mux, http.MethodGet, "/users/1", nil)
	var got userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "alicia", got.Name)
}

func TestServer_RenameUser_NotFound_Returns404(t *testing.T) {
	mux := testFixture(t).Routes()
	rec := doRequest(t, mux, http.MethodPut, "/users", renameUserRequest{UserID: 99, NewName: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListUsers(t *testing.T) {
	mux := testFixture(t).Routes()
	doRequest(t, mux, http.MethodPost, "/users", registerUserRequest{UserID: 1, Name: "alice"})
	doRequest(t, mux, http.MethodPost, "/users", registerUserRequest{UserID: 2, Name: "bob"})

	rec := doRequest(t, mux, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestServer_FindUserByName(t *testing.T) {
	mux := testFixture(t).Routes()
	doRequest(t, mux, http.MethodPost, "/users", registerUserRequest{UserID: 1, Name: "alice"})

	rec := doRequest(t, mux, http.MethodGet, "/users/search/alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint32(1), got.ID)
}
