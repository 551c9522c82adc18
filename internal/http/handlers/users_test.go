package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jobscout/jobscout/internal/domain/job"
	"github.com/jobscout/jobscout/internal/domain/user"
	"github.com/jobscout/jobscout/internal/http/handlers"
)

// fakeAccountStore implements handlers.UsersStore on top of fakeUsersRepo's
// read path.
type fakeAccountStore struct {
	fakeUsersRepo

	updateProfileFn func(ctx context.Context, id, name, email string) error
	listFn          func(ctx context.Context, params url.Values) ([]map[string]any, int, error)
	deleteCascadeFn func(ctx context.Context, id string) ([]string, error)
	setResumeFn     func(ctx context.Context, id, url string) error
	setPicFn        func(ctx context.Context, id, url string) error
}

func (f *fakeAccountStore) UpdateProfile(ctx context.Context, id, name, email string) error {
	if f.updateProfileFn != nil {
		return f.updateProfileFn(ctx, id, name, email)
	}
	return nil
}

func (f *fakeAccountStore) List(ctx context.Context, params url.Values) ([]map[string]any, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return []map[string]any{}, 0, nil
}

func (f *fakeAccountStore) DeleteCascade(ctx context.Context, id string) ([]string, error) {
	if f.deleteCascadeFn != nil {
		return f.deleteCascadeFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeAccountStore) SetResume(ctx context.Context, id, url string) error {
	if f.setResumeFn != nil {
		return f.setResumeFn(ctx, id, url)
	}
	return nil
}

func (f *fakeAccountStore) SetProfilePic(ctx context.Context, id, url string) error {
	if f.setPicFn != nil {
		return f.setPicFn(ctx, id, url)
	}
	return nil
}

type fakeActivityJobs struct {
	appliedFn   func(ctx context.Context, userID string) ([]job.Job, error)
	publishedFn func(ctx context.Context, userID string) ([]job.Summary, error)
}

func (f *fakeActivityJobs) AppliedBy(ctx context.Context, userID string) ([]job.Job, error) {
	if f.appliedFn != nil {
		return f.appliedFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeActivityJobs) PublishedBy(ctx context.Context, userID string) ([]job.Summary, error) {
	if f.publishedFn != nil {
		return f.publishedFn(ctx, userID)
	}
	return nil, nil
}

func newUserHandler(users *fakeAccountStore, jobs *fakeActivityJobs, store *fakeUploader) *handlers.UserHandler {
	return handlers.NewUserHandler(users, jobs, store, false, testRespond)
}

func TestProfileEmployerIncludesPublished(t *testing.T) {
	users := &fakeAccountStore{}
	users.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
		return user.User{ID: id, Name: "Acme HR", Role: user.RoleEmployer}, nil
	}

	jobs := &fakeActivityJobs{
		publishedFn: func(ctx context.Context, userID string) ([]job.Summary, error) {
			return []job.Summary{{ID: "j-1", Title: "Go Dev", Slug: "go-dev"}}, nil
		},
	}

	h := newUserHandler(users, jobs, &fakeUploader{})
	r := setupAuthedRouter(http.MethodGet, "/profile", "e-1", user.RoleEmployer, h.Profile)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Success       bool          `json:"success"`
		JobsPublished []job.Summary `json:"jobsPublished"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.JobsPublished) != 1 {
		t.Errorf("jobsPublished = %v", body.JobsPublished)
	}
}

func TestProfileJobSeekerHasNoPublished(t *testing.T) {
	users := &fakeAccountStore{}
	users.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
		return user.User{ID: id, Name: "Sam", Role: user.RoleUser}, nil
	}

	h := newUserHandler(users, &fakeActivityJobs{}, &fakeUploader{})
	r := setupAuthedRouter(http.MethodGet, "/profile", "u-1", user.RoleUser, h.Profile)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if _, present := body["jobsPublished"]; present {
		t.Error("job seeker profile must not carry jobsPublished")
	}
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	users := &fakeAccountStore{
		updateProfileFn: func(ctx context.Context, id, name, email string) error {
			return user.ErrEmailTaken
		},
	}

	h := newUserHandler(users, &fakeActivityJobs{}, &fakeUploader{})
	r := setupAuthedRouter(http.MethodPut, "/profile/update", "u-1", user.RoleUser, h.UpdateProfile)

	w := doJSON(t, r, http.MethodPut, "/profile/update", `{"name":"Sam","email":"taken@example.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteSelfCleansUpFiles(t *testing.T) {
	users := &fakeAccountStore{
		deleteCascadeFn: func(ctx context.Context, id string) ([]string, error) {
			return []string{"https://files.test/resumes/applicant.pdf"}, nil
		},
	}
	users.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
		return user.User{
			ID:         id,
			Role:       user.RoleEmployer,
			Resume:     "https://files.test/resumes/own.pdf",
			ProfilePic: "https://files.test/photos/me.png",
		}, nil
	}

	store := &fakeUploader{}

	h := newUserHandler(users, &fakeActivityJobs{}, store)
	r := setupAuthedRouter(http.MethodDelete, "/profile/delete", "e-1", user.RoleEmployer, h.DeleteSelf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/profile/delete", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if len(store.deleted) != 3 {
		t.Errorf("deleted = %v, want own resume, photo and the applicant resume", store.deleted)
	}

	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "token=") || !strings.Contains(cookie, "Max-Age=0") {
		t.Errorf("session cookie not expired: %q", cookie)
	}
}

func TestAdminListPagesAccounts(t *testing.T) {
	users := &fakeAccountStore{
		listFn: func(ctx context.Context, params url.Values) ([]map[string]any, int, error) {
			if params.Get("page") != "2" {
				t.Errorf("page param not forwarded: %v", params)
			}
			return []map[string]any{{"id": "u-1", "email": "sam@example.com"}}, 11, nil
		},
	}

	h := newUserHandler(users, &fakeActivityJobs{}, &fakeUploader{})
	r := setupAuthedRouter(http.MethodGet, "/users", "a-1", user.RoleAdmin, h.AdminList)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users?page=2", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Results int `json:"results"`
		Total   int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Results != 1 || body.Total != 11 {
		t.Errorf("results/total = %d/%d", body.Results, body.Total)
	}
}

func TestAdminDeleteUnknownUser(t *testing.T) {
	users := &fakeAccountStore{}

	h := newUserHandler(users, &fakeActivityJobs{}, &fakeUploader{})
	r := setupAuthedRouter(http.MethodDelete, "/user/:id", "a-1", user.RoleAdmin, h.AdminDelete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/user/ghost", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestGetUserPublicSubset(t *testing.T) {
	users := &fakeAccountStore{}
	users.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
		if id != "u-2" {
			return user.User{}, user.ErrNotFound
		}
		return user.User{
			ID:         "u-2",
			Name:       "Sam",
			Email:      "sam@example.com",
			Role:       user.RoleUser,
			Resume:     "https://files.test/resumes/sam.pdf",
			ProfilePic: "https://files.test/photos/sam.png",
		}, nil
	}

	h := newUserHandler(users, &fakeActivityJobs{}, &fakeUploader{})
	r := setupAuthedRouter(http.MethodGet, "/user/:id", "u-1", user.RoleUser, h.Get)

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user/u-2", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		var body struct {
			Data map[string]any `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Data["name"] != "Sam" || body.Data["email"] != "sam@example.com" {
			t.Errorf("data = %v", body.Data)
		}
		for _, hidden := range []string{"id", "role", "createdAt"} {
			if _, present := body.Data[hidden]; present {
				t.Errorf("%s must not leak into the public view", hidden)
			}
		}
	})

	t.Run("unknown_is_404", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user/ghost", nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d", w.Code)
		}
	})
}

func TestActivityRoutesByRole(t *testing.T) {
	jobs := &fakeActivityJobs{
		appliedFn: func(ctx context.Context, userID string) ([]job.Job, error) {
			return []job.Job{{ID: "j-1", Title: "Go Dev"}}, nil
		},
		publishedFn: func(ctx context.Context, userID string) ([]job.Summary, error) {
			return []job.Summary{{ID: "j-2", Title: "Rust Dev"}}, nil
		},
	}

	tests := []struct {
		name           string
		role           user.Role
		wantStatusCode int
		wantID         string
	}{
		{name: "seeker_gets_applications", role: user.RoleUser, wantStatusCode: http.StatusOK, wantID: "j-1"},
		{name: "employer_gets_postings", role: user.RoleEmployer, wantStatusCode: http.StatusOK, wantID: "j-2"},
		{name: "admin_is_forbidden", role: user.RoleAdmin, wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := newUserHandler(&fakeAccountStore{}, jobs, &fakeUploader{})
			r := setupAuthedRouter(http.MethodGet, "/jobs/activity", "u-1", tt.role, h.Activity)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/activity", nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantID != "" && !strings.Contains(w.Body.String(), tt.wantID) {
				t.Errorf("body %s misses %s", w.Body.String(), tt.wantID)
			}
		})
	}
}

func TestUpdateProfileMultipartWithPicture(t *testing.T) {
	var savedPic string
	users := &fakeAccountStore{
		setPicFn: func(ctx context.Context, id, url string) error {
			savedPic = url
			return nil
		},
	}
	users.getByIDFn = func(ctx context.Context, id string) (user.User, error) {
		return user.User{ID: id, ProfilePic: "https://files.test/photos/old.png"}, nil
	}

	store := &fakeUploader{}

	h := newUserHandler(users, &fakeActivityJobs{}, store)
	r := setupAuthedRouter(http.MethodPut, "/profile/update", "u-1", user.RoleUser, h.UpdateProfile)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("name", "Sam"); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("email", "sam@example.com"); err != nil {
		t.Fatal(err)
	}
	part, err := mw.CreateFormFile("file", "me.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("\x89PNG fake")); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPut, "/profile/update", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if savedPic == "" || !strings.HasPrefix(savedPic, "https://files.test/photos/") {
		t.Errorf("profile picture url = %q", savedPic)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "photos/old.png" {
		t.Errorf("old picture not removed: %v", store.deleted)
	}
}

func TestUpdateProfileMultipartRejectsBadEmail(t *testing.T) {
	users := &fakeAccountStore{
		updateProfileFn: func(ctx context.Context, id, name, email string) error {
			t.Error("profile must not be written for an invalid email")
			return nil
		},
	}

	h := newUserHandler(users, &fakeActivityJobs{}, &fakeUploader{})
	r := setupAuthedRouter(http.MethodPut, "/profile/update", "u-1", user.RoleUser, h.UpdateProfile)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("name", "Sam"); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("email", "not-an-email"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPut, "/profile/update", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "email") {
		t.Errorf("expected a field error naming email, body=%s", w.Body.String())
	}
}
