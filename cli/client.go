package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// ApiClient talks to the bakery chat API. The cookie jar keeps the visitor
// session so the transcript carries over between requests.
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
}

// ChatMessage is one transcript entry
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OrderLine is one recorded order row
type OrderLine struct {
	Item  string  `json:"item"`
	Price float64 `json:"price"`
}

// ChatReply is the answer to one message
type ChatReply struct {
	Reply string `json:"reply"`
	State string `json:"state"`
	Order *struct {
		Lines []OrderLine `json:"lines"`
	} `json:"order,omitempty"`
}

// MenuItem is one line of the bakery menu
type MenuItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Information is the bakery menu with its general details
type Information struct {
	Items  []MenuItem `json:"items"`
	Header struct {
		WorkingHours string `json:"working_hours"`
		ContactInfo  string `json:"contact_info"`
		Location     string `json:"location"`
	} `json:"header"`
	Warning string `json:"warning,omitempty"`
}

// NewApiClient creates a client for BAKERY_API_URL, or localhost:8080
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("BAKERY_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return newApiClient(baseURL)
}

func newApiClient(baseURL string) *ApiClient {
	jar, _ := cookiejar.New(nil)
	return &ApiClient{
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
			Jar:     jar,
		},
		BaseURL: baseURL,
	}
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}
	return true, nil
}

// History returns the session transcript, greeting first
func (c *ApiClient) History() ([]ChatMessage, error) {
	var out struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := c.do(http.MethodGet, "/api/chat/history", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage sends one chat message and returns the reply
func (c *ApiClient) SendMessage(message string) (*ChatReply, error) {
	var reply ChatReply
	if err := c.do(http.MethodPost, "/api/chat", map[string]string{"message": message}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// GetInformation returns the bakery menu as this session sees it
func (c *ApiClient) GetInformation() (*Information, error) {
	var info Information
	if err := c.do(http.MethodGet, "/api/information", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetOrders returns every recorded order line
func (c *ApiClient) GetOrders() ([]OrderLine, error) {
	var out struct {
		Orders []OrderLine `json:"orders"`
	}
	if err := c.do(http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// do sends a JSON request and decodes the response into out. Error bodies
// of the form {"error": "..."} become the returned error.
func (c *ApiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
