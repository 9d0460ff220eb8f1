package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swachhconnect/categorizer"
	"swachhconnect/middlewares"
	"swachhconnect/models"
	"swachhconnect/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	h       *Handler
	router  *gin.Engine
	issues  *fakeIssueStore
	users   *fakeUserStore
	blobs   *fakeBlobStore
	backend *fakeBackend
	mail    *fakeMailer
	sms     *fakeSMS
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		issues:  newFakeIssueStore(),
		users:   newFakeUserStore(),
		blobs:   newFakeBlobStore(),
		backend: &fakeBackend{answer: "potholes"},
		mail:    &fakeMailer{},
		sms:     &fakeSMS{},
	}
	env.h = New(env.issues, env.users, env.blobs, categorizer.New(env.backend),
		fakeGeo{address: "MG Road, Pune"}, env.mail, env.sms, Settings{
			JWTSecret:       testSecret,
			StaffSignupCode: "city-staff",
			OTPExpiry:       5 * time.Minute,
			ResetExpiry:     15 * time.Minute,
			PublicURL:       "https://swachh.example",
		})
	env.h.now = func() time.Time { return fixedNow }
	env.router = env.routes()
	return env
}

func (env *testEnv) routes() *gin.Engine {
	r := gin.New()
	h := env.h
	r.POST("/auth/otp/send", h.SendOTP)
	r.POST("/auth/otp/verify", h.VerifyOTP)
	r.POST("/registration", h.RegisterStaff)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.POST("/forgetpassword", h.ForgetPassword)
	r.POST("/users/resetpassword/reset/:resetcode", h.ResetPassword)

	auth := r.Group("/", middlewares.JWT(testSecret))
	auth.POST("/users/password", h.UpdatePassword)
	auth.POST("/issues", h.CreateIssue)
	auth.GET("/issues/mine", h.MyIssues)
	auth.GET("/issues/stream", h.StreamIssues)
	auth.GET("/issues", h.ListIssues)
	auth.GET("/issues/:id", h.GetIssue)
	auth.GET("/issues/category/:category", h.GetIssuesByCategory)
	auth.POST("/issues/:id/reply", h.ReplyToIssue)
	auth.POST("/issues/:id/solve", h.MarkSolved)
	auth.DELETE("/issues/:id", h.DeleteIssue)
	auth.GET("/categories", h.GetCategories)
	auth.GET("/dashboard/stats", h.DashboardStats)
	auth.GET("/reports", h.Report)
	auth.GET("/reports/csv", h.ReportCSV)
	auth.GET("/citizens", h.ListCitizens)
	auth.DELETE("/citizens/:user_id", h.DeleteCitizen)
	return r
}

func tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.SignedToken(testSecret, utils.SignedDetails{
		UserID:    userID,
		FirstName: "Asha",
		LastName:  "Patil",
		Role:      role,
	})
	require.NoError(t, err)
	return tok
}

func citizenToken(t *testing.T) string   { return tokenFor(t, "citizen-1", models.RoleCitizen) }
func municipalToken(t *testing.T) string { return tokenFor(t, "staff-1", models.RoleMunicipal) }

func (env *testEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) get(path, token string) *httptest.ResponseRecorder {
	return env.do(httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (env *testEnv) postJSON(t *testing.T, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return env.do(req, token)
}

type upload struct {
	fields   map[string]string
	fileName string
	image    []byte
}

func (env *testEnv) postIssue(t *testing.T, token string, u upload) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range u.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if u.image != nil {
		part, err := mw.CreateFormFile("image", u.fileName)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(u.image))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/issues", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return env.do(req, token)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func httptestDelete(path string) *http.Request {
	return httptest.NewRequest(http.MethodDelete, path, nil)
}
