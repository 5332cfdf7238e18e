package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
)

type fakeDomains struct {
	create      func(dto.CreateDomain) (dto.CreatedDomain, error)
	rename      func(dto.RenameDomain) (entity.DomainRecord, error)
	deleteFn    func(dto.DomainRef) error
	restore     func(dto.DomainRef) (dto.RestoredDomain, error)
	verify      func(dto.VerifyDomain) (bool, error)
	getByID     func(dto.DomainRef) (entity.DomainRecord, error)
	listByOwner func(string, dto.Page) (dto.PagedResult[entity.DomainRecord], error)
	list        func(string) ([]entity.DomainRecord, error)
	exists      func(string, string) (bool, error)
}

func (f *fakeDomains) Create(_ context.Context, cmd dto.CreateDomain) (dto.CreatedDomain, error) {
	return f.create(cmd)
}

func (f *fakeDomains) Rename(_ context.Context, cmd dto.RenameDomain) (entity.DomainRecord, error) {
	return f.rename(cmd)
}

func (f *fakeDomains) Delete(_ context.Context, ref dto.DomainRef) error { return f.deleteFn(ref) }

func (f *fakeDomains) Restore(_ context.Context, ref dto.DomainRef) (dto.RestoredDomain, error) {
	return f.restore(ref)
}

func (f *fakeDomains) Verify(_ context.Context, cmd dto.VerifyDomain) (bool, error) {
	return f.verify(cmd)
}

func (f *fakeDomains) GetByID(_ context.Context, ref dto.DomainRef) (entity.DomainRecord, error) {
	return f.getByID(ref)
}

func (f *fakeDomains) ListByOwner(_ context.Context, ownerID string, page dto.Page) (dto.PagedResult[entity.DomainRecord], error) {
	return f.listByOwner(ownerID, page)
}

func (f *fakeDomains) ListVerified(_ context.Context, ownerID string) ([]entity.DomainRecord, error) {
	return f.list(ownerID)
}

func (f *fakeDomains) ListDeleted(_ context.Context, ownerID string) ([]entity.DomainRecord, error) {
	return f.list(ownerID)
}

func (f *fakeDomains) Exists(_ context.Context, ownerID, name string) (bool, error) {
	return f.exists(ownerID, name)
}

type fakeActivity struct {
	items []dto.ActivityItem
	limit int
}

func (f *fakeActivity) Consume(context.Context, entity.Envelope) error { return nil }

func (f *fakeActivity) Feed(_ context.Context, _ uuid.UUID, limit int) ([]dto.ActivityItem, error) {
	f.limit = limit
	return f.items, nil
}

var created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(id uuid.UUID, name string) entity.DomainRecord {
	return entity.DomainRecord{ID: id, Name: name, OwnerID: "u1", CreatedAt: created, Version: 1}
}

func newApp(domains *fakeDomains, activity *fakeActivity) *fiber.App {
	return newAppWithLogger(domains, activity, logger.NewNop())
}

func newAppWithLogger(domains *fakeDomains, activity *fakeActivity, l logger.Interface) *fiber.App {
	app := fiber.New()
	NewDomainRoutes(app.Group("/v1"), domains, activity, l)

	return app
}

// errorCounter counts Error calls and drops everything else.
type errorCounter struct {
	mu     sync.Mutex
	errors int
}

func (c *errorCounter) Debug(interface{}, ...interface{}) {}
func (c *errorCounter) Info(string, ...interface{})       {}
func (c *errorCounter) Warn(string, ...interface{})       {}
func (c *errorCounter) Fatal(interface{}, ...interface{}) {}

func (c *errorCounter) Error(interface{}, ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errors++
}

func (c *errorCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.errors
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}

	return resp, out
}

func TestCreateDomain(t *testing.T) {
	id := uuid.New()
	var got dto.CreateDomain
	domains := &fakeDomains{create: func(cmd dto.CreateDomain) (dto.CreatedDomain, error) {
		got = cmd
		return dto.CreatedDomain{Record: record(id, "example.com"), VerificationToken: "secret"}, nil
	}}
	app := newApp(domains, &fakeActivity{})

	resp, body := do(t, app, http.MethodPost, "/v1/domains", `{"domain_name":"Example.com","user_id":"u1"}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/v1/domains/"+id.String(), resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, dto.CreateDomain{Name: "Example.com", OwnerID: "u1"}, got)
	assert.Equal(t, id.String(), body["id"])
	assert.Equal(t, "example.com", body["domain_name"])
	assert.Equal(t, "secret", body["verification_token"])
	assert.Equal(t, false, body["is_verified"])
}

func TestCreateDomain_BadRequests(t *testing.T) {
	domains := &fakeDomains{create: func(dto.CreateDomain) (dto.CreatedDomain, error) {
		t.Error("use case must not be called")
		return dto.CreatedDomain{}, nil
	}}
	app := newApp(domains, &fakeActivity{})

	for _, body := range []string{`{`, `{"user_id":"u1"}`, `{"domain_name":"example.com"}`} {
		resp, out := do(t, app, http.MethodPost, "/v1/domains", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.NotEmpty(t, out["error"])
	}
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("uc: %w", errs.ErrInvalidName), http.StatusBadRequest, "invalid domain name"},
		{fmt.Errorf("uc: %w", errs.ErrDomainNotFound), http.StatusNotFound, "domain not found"},
		{fmt.Errorf("uc: %w", errs.ErrNameTaken), http.StatusConflict, "domain name already exists for this user"},
		{fmt.Errorf("uc: %w", errs.ErrConcurrentUpdate), http.StatusServiceUnavailable, "service temporarily unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			domains := &fakeDomains{create: func(dto.CreateDomain) (dto.CreatedDomain, error) {
				return dto.CreatedDomain{}, tt.err
			}}
			app := newApp(domains, &fakeActivity{})

			resp, body := do(t, app, http.MethodPost, "/v1/domains", `{"domain_name":"example.com","user_id":"u1"}`)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestCanceledRequestIsNotAnError(t *testing.T) {
	l := &errorCounter{}
	domains := &fakeDomains{create: func(dto.CreateDomain) (dto.CreatedDomain, error) {
		return dto.CreatedDomain{}, fmt.Errorf("uc: %w", errs.Unavailable(context.Canceled))
	}}
	app := newAppWithLogger(domains, &fakeActivity{}, l)

	resp, _ := do(t, app, http.MethodPost, "/v1/domains", `{"domain_name":"example.com","user_id":"u1"}`)

	assert.Equal(t, statusClientClosedRequest, resp.StatusCode)
	assert.Zero(t, l.count())

	domains.create = func(dto.CreateDomain) (dto.CreatedDomain, error) {
		return dto.CreatedDomain{}, errors.New("boom")
	}
	resp, _ = do(t, app, http.MethodPost, "/v1/domains", `{"domain_name":"example.com","user_id":"u1"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1, l.count())
}

func TestGetDomain(t *testing.T) {
	id := uuid.New()
	domains := &fakeDomains{getByID: func(ref dto.DomainRef) (entity.DomainRecord, error) {
		if ref.OwnerID != "u1" {
			return entity.DomainRecord{}, errs.ErrDomainNotFound
		}
		return record(ref.ID, "example.com"), nil
	}}
	app := newApp(domains, &fakeActivity{})

	resp, body := do(t, app, http.MethodGet, "/v1/domains/"+id.String()+"?user_id=u1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u1", body["user_id"])
	assert.NotContains(t, body, "verification_token")

	resp, _ = do(t, app, http.MethodGet, "/v1/domains/"+id.String()+"?user_id=u2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/v1/domains/not-a-uuid?user_id=u1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/v1/domains/"+id.String(), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRenameDomain(t *testing.T) {
	id := uuid.New()
	var got dto.RenameDomain
	domains := &fakeDomains{rename: func(cmd dto.RenameDomain) (entity.DomainRecord, error) {
		got = cmd
		return record(cmd.ID, "example.org"), nil
	}}
	app := newApp(domains, &fakeActivity{})

	resp, body := do(t, app, http.MethodPut, "/v1/domains/"+id.String()+"/name", `{"new_domain_name":"example.org","user_id":"u1"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.RenameDomain{ID: id, OwnerID: "u1", NewName: "example.org"}, got)
	assert.Equal(t, "example.org", body["domain_name"])
}

func TestDeleteDomain(t *testing.T) {
	id := uuid.New()
	calls := 0
	domains := &fakeDomains{deleteFn: func(ref dto.DomainRef) error {
		calls++
		if calls > 1 {
			return fmt.Errorf("uc: %w", errs.ErrAlreadyDeleted)
		}
		return nil
	}}
	app := newApp(domains, &fakeActivity{})

	resp, _ := do(t, app, http.MethodDelete, "/v1/domains/"+id.String()+"?user_id=u1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := do(t, app, http.MethodDelete, "/v1/domains/"+id.String()+"?user_id=u1", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "domain is already deleted", body["error"])
}

func TestRestoreDomain(t *testing.T) {
	id := uuid.New()
	domains := &fakeDomains{restore: func(ref dto.DomainRef) (dto.RestoredDomain, error) {
		return dto.RestoredDomain{Record: record(ref.ID, "example.com"), VerificationToken: "fresh"}, nil
	}}
	app := newApp(domains, &fakeActivity{})

	resp, body := do(t, app, http.MethodPost, "/v1/domains/"+id.String()+"/restore", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fresh", body["verification_token"])
}

func TestVerifyDomain(t *testing.T) {
	id := uuid.New()
	domains := &fakeDomains{verify: func(cmd dto.VerifyDomain) (bool, error) {
		return cmd.Token == "right", nil
	}}
	app := newApp(domains, &fakeActivity{})

	resp, body := do(t, app, http.MethodPost, "/v1/domains/"+id.String()+"/verify", `{"verification_token":"wrong","user_id":"u1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["verified"])

	resp, body = do(t, app, http.MethodPost, "/v1/domains/"+id.String()+"/verify", `{"verification_token":"right","user_id":"u1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["verified"])

	resp, _ = do(t, app, http.MethodPost, "/v1/domains/"+id.String()+"/verify", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListDomains(t *testing.T) {
	var gotPage dto.Page
	domains := &fakeDomains{listByOwner: func(owner string, page dto.Page) (dto.PagedResult[entity.DomainRecord], error) {
		gotPage = page
		items := []entity.DomainRecord{record(uuid.New(), "a.com")}
		return dto.NewPagedResult(items, 3, page.Normalize()), nil
	}}
	app := newApp(domains, &fakeActivity{})

	resp, body := do(t, app, http.MethodGet, "/v1/users/u1/domains?skip=1&take=1", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.Page{Skip: 1, Take: 1}, gotPage)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, true, body["has_more"])
	require.Len(t, body["items"], 1)
	assert.NotContains(t, body["items"].([]any)[0], "user_id")
}

func TestListVerifiedAndDeleted(t *testing.T) {
	domains := &fakeDomains{list: func(string) ([]entity.DomainRecord, error) {
		return []entity.DomainRecord{}, nil
	}}
	app := newApp(domains, &fakeActivity{})

	for _, path := range []string{"/v1/users/u1/domains/verified", "/v1/users/u1/domains/deleted"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[]`, string(raw), path)
	}
}

func TestDomainExists(t *testing.T) {
	domains := &fakeDomains{exists: func(owner, name string) (bool, error) {
		return owner == "u1" && name == "example.com", nil
	}}
	app := newApp(domains, &fakeActivity{})

	resp, body := do(t, app, http.MethodGet, "/v1/users/u1/domains/exists?name=example.com", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["exists"])

	resp, _ = do(t, app, http.MethodGet, "/v1/users/u1/domains/exists", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetActivity(t *testing.T) {
	id := uuid.New()
	activity := &fakeActivity{items: []dto.ActivityItem{{EventID: uuid.New(), EventType: "domain.created", ProducerSequence: 1}}}
	app := newApp(&fakeDomains{}, activity)

	resp, body := do(t, app, http.MethodGet, "/v1/domains/"+id.String()+"/activity?limit=500", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100, activity.limit)
	assert.Equal(t, id.String(), body["domain_id"])
	require.Len(t, body["items"], 1)

	activity.items = nil
	_, body = do(t, app, http.MethodGet, "/v1/domains/"+id.String()+"/activity", "")
	assert.Equal(t, 20, activity.limit)
	assert.Equal(t, []any{}, body["items"])
}
