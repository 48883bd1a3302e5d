// Command seed loads a workshop catalogue, room list and student choices
// from JSON files and pushes them through the import API, optionally
// kicking off a full assignment run afterwards.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginEnvelope struct {
	Data struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

type seeder struct {
	client *http.Client
	base   string
	prefix string
	token  string
}

func main() {
	var (
		base        string
		prefix      string
		username    string
		password    string
		eventsPath  string
		roomsPath   string
		choicesPath string
		runPlanner  bool
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.StringVar(&username, "user", "admin", "Admin username")
	flag.StringVar(&password, "pass", "", "Admin password (or SEED_PASSWORD env)")
	flag.StringVar(&eventsPath, "events", "", "Path to events JSON file")
	flag.StringVar(&roomsPath, "rooms", "", "Path to rooms JSON file")
	flag.StringVar(&choicesPath, "choices", "", "Path to choices JSON file")
	flag.BoolVar(&runPlanner, "run", false, "Trigger a full assignment run after seeding")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	if password == "" {
		password = os.Getenv("SEED_PASSWORD")
	}
	if password == "" {
		log.Fatal("no password given: pass -pass or set SEED_PASSWORD")
	}
	if eventsPath == "" && roomsPath == "" && choicesPath == "" && !runPlanner {
		log.Fatal("nothing to do: pass at least one of -events, -rooms, -choices or -run")
	}

	s := &seeder{
		client: &http.Client{Timeout: timeout},
		base:   strings.TrimRight(base, "/"),
		prefix: prefix,
	}

	if err := s.login(username, password); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	imports := []struct {
		path     string
		endpoint string
		label    string
	}{
		{eventsPath, "/events/import", "events"},
		{roomsPath, "/rooms/import", "rooms"},
		{choicesPath, "/choices/import", "choices"},
	}
	for _, imp := range imports {
		if imp.path == "" {
			continue
		}
		if err := s.postFile(imp.endpoint, imp.path); err != nil {
			log.Fatalf("import %s failed: %v", imp.label, err)
		}
		fmt.Printf("imported %s from %s\n", imp.label, imp.path)
	}

	if runPlanner {
		body, err := s.post("/planner/run", nil)
		if err != nil {
			log.Fatalf("planner run failed: %v", err)
		}
		fmt.Printf("planner run finished: %s\n", body)
	}
}

func (s *seeder) login(username, password string) error {
	payload, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	body, err := s.post("/auth/login", payload)
	if err != nil {
		return err
	}
	var envelope loginEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if envelope.Data.AccessToken == "" {
		return fmt.Errorf("login response carried no token: %s", body)
	}
	s.token = envelope.Data.AccessToken
	return nil
}

func (s *seeder) postFile(endpoint, path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !json.Valid(payload) {
		return fmt.Errorf("%s is not valid JSON", path)
	}
	_, err = s.post(endpoint, payload)
	return err
}

func (s *seeder) post(endpoint string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(http.MethodPost, s.base+s.prefix+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, body)
	}
	return body, nil
}
