//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const e2eSecret = "e2e-test-jwt-secret-0123456789abcdef"

// reelServer manages a running reel server process.
type reelServer struct {
	cmd        *exec.Cmd
	dataDir    string
	videosRoot string
	address    string
	logFile    string
}

// startReel launches the reel binary and waits for it to become healthy.
// The server is configured entirely via environment variables.
func startReel(t *testing.T) *reelServer {
	t.Helper()
	requireReel(t)

	dataDir := t.TempDir()
	return launchReel(t, dataDir, filepath.Join(dataDir, "videos"), "reel.log")
}

func launchReel(t *testing.T, dataDir, videosRoot, logName string) *reelServer {
	t.Helper()

	port := freePort(t)
	address := fmt.Sprintf("127.0.0.1:%d", port)
	logFile := filepath.Join(dataDir, logName)

	cmd := exec.Command(reelBin)
	cmd.Env = append(os.Environ(), reelEnv(dataDir, videosRoot)...)
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("REEL_PORT=%d", port),
		"REEL_RATE_LIMIT_REQUESTS=0",
	)

	lf, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start reel: %v", err)
	}

	s := &reelServer{
		cmd:        cmd,
		dataDir:    dataDir,
		videosRoot: videosRoot,
		address:    address,
		logFile:    logFile,
	}

	t.Cleanup(func() {
		s.stop()
		lf.Close()
	})

	if err := s.waitHealthy(10 * time.Second); err != nil {
		log, _ := os.ReadFile(logFile)
		t.Fatalf("reel not healthy: %v\nlog:\n%s", err, log)
	}

	return s
}

// reelEnv returns the environment shared by the server and CLI invocations
// against the same data directory.
func reelEnv(dataDir, videosRoot string) []string {
	return []string{
		"REEL_DB_PATH=" + filepath.Join(dataDir, "reel.db"),
		"REEL_VIDEOS_ROOT=" + videosRoot,
		"REEL_JWT_SECRET=" + e2eSecret,
		"REEL_CONFIG_PATH=" + filepath.Join(dataDir, "nonexistent.yaml"),
		"REEL_BCRYPT_COST=4",
		"REEL_S3_BUCKET=",
	}
}

func (s *reelServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
}

// restartOnSameData stops the server and starts a new one on the same data
// directory and videos root.
func (s *reelServer) restartOnSameData(t *testing.T) *reelServer {
	t.Helper()

	s.stop()
	time.Sleep(200 * time.Millisecond) // allow port release

	return launchReel(t, s.dataDir, s.videosRoot, "reel-restart.log")
}

func (s *reelServer) baseURL() string {
	return fmt.Sprintf("http://%s", s.address)
}

func (s *reelServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := s.baseURL() + "/health"

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("reel not healthy after %s", timeout)
}

// addVideos writes placeholder video files into category folders.
func (s *reelServer) addVideos(t *testing.T, category string, names ...string) {
	t.Helper()
	dir := filepath.Join(s.videosRoot, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create category folder: %v", err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("video:"+name), 0o644); err != nil {
			t.Fatalf("write video: %v", err)
		}
	}
}

// do sends a JSON request and returns the status and raw body.
func (s *reelServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, s.baseURL()+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, respBody
}

type authResult struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// register creates an account and returns its token and user ID.
func (s *reelServer) register(t *testing.T, email, password string) authResult {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register: status %d: %s", status, body)
	}
	var out authResult
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("register decode: %v", err)
	}
	return out
}

// login authenticates an existing account.
func (s *reelServer) login(t *testing.T, email, password string) authResult {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login: status %d: %s", status, body)
	}
	var out authResult
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("login decode: %v", err)
	}
	return out
}

type nextVideoResult struct {
	Video *struct {
		Filename string `json:"filename"`
		Path     string `json:"path"`
		Category string `json:"category"`
	} `json:"video"`
	Category    string `json:"category"`
	Message     string `json:"message"`
	ResetViewed bool   `json:"reset_viewed"`
}

// nextVideo draws the next video, optionally scoped to a category.
func (s *reelServer) nextVideo(t *testing.T, token, category string) nextVideoResult {
	t.Helper()
	path := "/api/next-video"
	if category != "" {
		path += "?category=" + category
	}
	status, body := s.do(t, http.MethodGet, path, token, nil)
	if status != http.StatusOK {
		t.Fatalf("next-video: status %d: %s", status, body)
	}
	var out nextVideoResult
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("next-video decode: %v", err)
	}
	return out
}

// interact records feedback on a video.
func (s *reelServer) interact(t *testing.T, token, videoPath, category, interaction string) {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/interact", token, map[string]string{
		"video_path":       videoPath,
		"category":         category,
		"interaction_type": interaction,
	})
	if status != http.StatusOK {
		t.Fatalf("interact: status %d: %s", status, body)
	}
}

// preferences returns the caller's scores keyed by category.
func (s *reelServer) preferences(t *testing.T, token string) map[string]float64 {
	t.Helper()
	status, body := s.do(t, http.MethodGet, "/api/preferences", token, nil)
	if status != http.StatusOK {
		t.Fatalf("preferences: status %d: %s", status, body)
	}
	var rows []struct {
		Category string  `json:"category"`
		Score    float64 `json:"score"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		t.Fatalf("preferences decode: %v\nraw: %s", err, body)
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Score
	}
	return out
}

// cli runs a reel subcommand against the server's data directory.
func (s *reelServer) cli(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(reelBin, args...)
	cmd.Env = append(os.Environ(), reelEnv(s.dataDir, s.videosRoot)...)
	out, err := cmd.Output()
	return string(out), err
}

// freePort returns a free TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
