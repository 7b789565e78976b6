package media

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roamstay-backend/internal/domain"
)

// Store persists listing images and removes them when a listing is
// deleted or its image replaced.
type Store interface {
	Upload(ctx context.Context, imageData, publicID string) (domain.ImageRef, error)
	Destroy(ctx context.Context, key string) error
}

// HTTPClient is a Store backed by the Cloudinary upload API.
type HTTPClient struct {
	BaseURL   string // defaults to the Cloudinary API host
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	Client    *http.Client
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

type destroyResponse struct {
	Result string `json:"result"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends a signed upload of imageData (raw base64 or a data URI)
// and returns the durable reference to the stored asset. The returned
// Key is what Destroy expects.
func (c *HTTPClient) Upload(ctx context.Context, imageData, publicID string) (domain.ImageRef, error) {
	if err := c.checkConfig(); err != nil {
		return domain.ImageRef{}, err
	}
	if imageData == "" {
		return domain.ImageRef{}, fmt.Errorf("media: empty image payload")
	}

	// Accept both "data:image/...;base64,xxx" and bare base64.
	payload := imageData
	if i := strings.Index(imageData, ","); i != -1 {
		payload = imageData[i+1:]
	}

	key := c.keyFor(publicID)
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	form := url.Values{}
	form.Add("file", "data:image/jpeg;base64,"+payload)
	form.Add("api_key", c.APIKey)
	form.Add("public_id", key)
	form.Add("timestamp", timestamp)
	form.Add("signature", c.sign(key, timestamp))

	respBody, status, err := c.post(ctx, "/image/upload", form)
	if err != nil {
		return domain.ImageRef{}, err
	}

	var data uploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return domain.ImageRef{}, fmt.Errorf("media response decode: %w", err)
	}
	if status != http.StatusOK || data.Error.Message != "" {
		return domain.ImageRef{}, fmt.Errorf("media upload failed: status %d: %s", status, errorOrBody(data.Error.Message, respBody))
	}

	storedURL := data.SecureURL
	if storedURL == "" {
		storedURL = data.URL
	}
	if storedURL == "" {
		return domain.ImageRef{}, fmt.Errorf("media upload returned no URL, body: %s", string(respBody))
	}
	return domain.ImageRef{URL: storedURL, Key: key}, nil
}

// Destroy removes a previously uploaded asset by its Key.
func (c *HTTPClient) Destroy(ctx context.Context, key string) error {
	if err := c.checkConfig(); err != nil {
		return err
	}
	if key == "" {
		return nil
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	form := url.Values{}
	form.Add("public_id", key)
	form.Add("api_key", c.APIKey)
	form.Add("timestamp", timestamp)
	form.Add("signature", c.sign(key, timestamp))

	respBody, status, err := c.post(ctx, "/image/destroy", form)
	if err != nil {
		return err
	}

	var data destroyResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return fmt.Errorf("media response decode: %w", err)
	}
	if status != http.StatusOK || data.Error.Message != "" {
		return fmt.Errorf("media destroy failed: status %d: %s", status, errorOrBody(data.Error.Message, respBody))
	}
	if data.Result != "ok" {
		return fmt.Errorf("media destroy result: %s", data.Result)
	}
	return nil
}

func (c *HTTPClient) checkConfig() error {
	if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("media: MEDIA_CLOUD_NAME, MEDIA_API_KEY and MEDIA_API_SECRET must be set")
	}
	return nil
}

func (c *HTTPClient) keyFor(publicID string) string {
	if c.Folder != "" {
		return c.Folder + "/" + publicID
	}
	return publicID
}

// sign builds the SHA1 request signature the upload API expects:
// the signed params in alphabetical order followed by the secret.
func (c *HTTPClient) sign(publicID, timestamp string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, c.APISecret)
	return fmt.Sprintf("%x", sha1.Sum([]byte(payload)))
}

func (c *HTTPClient) post(ctx context.Context, path string, form url.Values) ([]byte, int, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	base := c.BaseURL
	if base == "" {
		base = "https://api.cloudinary.com/v1_1"
	}
	endpoint := strings.TrimRight(base, "/") + "/" + c.CloudName + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("media request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return respBody, resp.StatusCode, nil
}

func errorOrBody(msg string, body []byte) string {
	if msg != "" {
		return msg
	}
	return string(body)
}
