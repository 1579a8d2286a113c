package publisher

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"

	"github.com/desertthunder/cancionero/internal/shared"
)

const cloudinaryBaseURL = "https://api.cloudinary.com"

// Cloudinary uploads through the signed Cloudinary upload API.
type Cloudinary struct {
	client    *req.Client
	cloudName string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

// NewCloudinary creates a Cloudinary backend. Cloud name, API key and secret are required.
func NewCloudinary(cfg shared.CloudinaryConfig, timeout time.Duration) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: cloudinary requires cloud_name, api_key and api_secret", shared.ErrMissingConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cloudinaryBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := req.C().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetUserAgent("cancionero")

	return &Cloudinary{
		client:    client,
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		now:       time.Now,
	}, nil
}

func (c *Cloudinary) Name() string { return shared.PublisherCloudinary }

// Upload sends obj as a multipart image upload and returns the secure_url of the created asset.
func (c *Cloudinary) Upload(ctx context.Context, obj Object) (string, error) {
	params := map[string]string{
		"public_id": obj.PublicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	form := map[string]string{
		"api_key":   c.apiKey,
		"signature": Sign(params, c.apiSecret),
	}
	for k, v := range params {
		form[k] = v
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetFileBytes("file", obj.Filename(), obj.Data).
		Post("/v1_1/" + c.cloudName + "/image/upload")
	if err != nil {
		return "", fmt.Errorf("%w: cloudinary request failed: %v", shared.ErrRemoteService, err)
	}

	body := resp.Bytes()
	if resp.IsErrorState() {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("%w: cloudinary returned %d: %s", shared.ErrRemoteService, resp.StatusCode, msg)
	}

	url := gjson.GetBytes(body, "secure_url")
	if !url.Exists() || url.String() == "" {
		return "", fmt.Errorf("%w: cloudinary response has no secure_url", shared.ErrRemoteService)
	}
	return url.String(), nil
}

// Sign computes the Cloudinary request signature: the parameters sorted by name and joined
// as "k=v&k=v", followed by the API secret, hashed with SHA-1.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
