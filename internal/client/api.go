package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/gorilla/websocket"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    response.ErrCode
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsAuthError reports whether err is a rejected or missing credential.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == response.ErrTokenRequired || apiErr.Code == response.ErrTokenInvalid
}

// Client is a typed client for the REST API.
type Client struct {
	baseURL string
	tokens  TokenSource
	dialer  *websocket.Dialer
	http    *http.Client
}

// NewClient creates a Client for the server at baseURL (scheme and host,
// without the /api/v1 prefix). Every request goes through a Transport
// reading tokens, wrapping base.
func NewClient(baseURL string, tokens TokenSource, base http.RoundTripper) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		dialer:  websocket.DefaultDialer,
		http: &http.Client{
			Transport: &Transport{Tokens: tokens, Base: base},
			Timeout:   15 * time.Second,
		},
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if errors.Is(decodeErr, io.EOF) {
		decodeErr = nil
	}

	// Error bodies that are not the JSON envelope (proxy pages, gin's plain
	// 404) still produce an APIError carrying the status.
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Fields = env.Error.Fields
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// ─── Auth ───────────────────────────────────────────────────────────

func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", model.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ─── Users ──────────────────────────────────────────────────────────

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out struct {
		Users []model.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) UpdateUserRole(ctx context.Context, userID int, role model.Role) (*model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	path := fmt.Sprintf("/users/%d/role", userID)
	if err := c.do(ctx, http.MethodPut, path, model.UpdateRoleRequest{Role: role}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", userID), nil, nil)
}

// ─── Courses ────────────────────────────────────────────────────────

type courseList struct {
	Courses []model.Course `json:"courses"`
}

type courseItem struct {
	Course model.Course `json:"course"`
}

func (c *Client) ListCourses(ctx context.Context) ([]model.Course, error) {
	var out courseList
	if err := c.do(ctx, http.MethodGet, "/courses", nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

func (c *Client) StudentCourses(ctx context.Context, studentID int) ([]model.Course, error) {
	var out courseList
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/student/%d", studentID), nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

func (c *Client) GetCourse(ctx context.Context, id int) (*model.Course, error) {
	var out courseItem
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Course, nil
}

func (c *Client) CreateCourse(ctx context.Context, req model.CourseRequest) (*model.Course, error) {
	var out courseItem
	if err := c.do(ctx, http.MethodPost, "/courses", req, &out); err != nil {
		return nil, err
	}
	return &out.Course, nil
}

func (c *Client) UpdateCourse(ctx context.Context, id int, req model.CourseRequest) (*model.Course, error) {
	var out courseItem
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/courses/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out.Course, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/courses/%d", id), nil, nil)
}

func (c *Client) Enroll(ctx context.Context, courseID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/courses/%d/enroll", courseID), nil, nil)
}

func (c *Client) Unenroll(ctx context.Context, courseID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/courses/%d/unenroll", courseID), nil, nil)
}

// ─── Lessons ────────────────────────────────────────────────────────

type lessonItem struct {
	Lesson model.Lesson `json:"lesson"`
}

func (c *Client) ListLessons(ctx context.Context, courseID int) ([]model.Lesson, error) {
	var out struct {
		Lessons []model.Lesson `json:"lessons"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/lessons", courseID), nil, &out); err != nil {
		return nil, err
	}
	return out.Lessons, nil
}

func (c *Client) CreateLesson(ctx context.Context, courseID int, req model.LessonRequest) (*model.Lesson, error) {
	var out lessonItem
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/courses/%d/lessons", courseID), req, &out); err != nil {
		return nil, err
	}
	return &out.Lesson, nil
}

func (c *Client) UpdateLesson(ctx context.Context, courseID, lessonID int, req model.LessonRequest) (*model.Lesson, error) {
	var out lessonItem
	path := fmt.Sprintf("/courses/%d/lessons/%d", courseID, lessonID)
	if err := c.do(ctx, http.MethodPut, path, req, &out); err != nil {
		return nil, err
	}
	return &out.Lesson, nil
}

func (c *Client) DeleteLesson(ctx context.Context, courseID, lessonID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/courses/%d/lessons/%d", courseID, lessonID), nil, nil)
}
