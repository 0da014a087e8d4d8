package release

import (
	"context"
	"fmt"
	"net/http"

	resty "resty.dev/v3"

	"github.com/specialistvlad/shipgrid/internal/model"
)

// releaseWire is the host's release representation on the wire.
type releaseWire struct {
	ID     string                 `json:"id"`
	Tag    string                 `json:"tag"`
	Draft  bool                   `json:"draft"`
	Assets []model.ArtifactBundle `json:"assets"`
}

// createWire is the body of a create call. Draft is sent only here; update
// calls never carry the flag, so the host cannot be asked to promote.
type createWire struct {
	Tag   string `json:"tag"`
	Draft bool   `json:"draft"`
}

// assetsWire is the body of an asset merge call.
type assetsWire struct {
	Assets []model.ArtifactBundle `json:"assets"`
}

// HTTPClient implements Client against the release host's REST API.
type HTTPClient struct {
	rc *resty.Client
}

// NewHTTPClient builds a client for the given base URL. The credential
// token is attached to every request and never logged.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}
	return &HTTPClient{rc: rc}
}

// FindReleaseByTag implements the Client interface.
func (c *HTTPClient) FindReleaseByTag(ctx context.Context, tag string) (*model.ReleaseRecord, error) {
	var wire releaseWire
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&wire).
		SetPathParam("tag", tag).
		Get("/releases/tags/{tag}")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: tag %q", ErrNotFound, tag)
	case resp.IsSuccess():
		return toRecord(&wire, resp.Header().Get("ETag")), nil
	default:
		return nil, classify(resp)
	}
}

// CreateRelease implements the Client interface.
func (c *HTTPClient) CreateRelease(ctx context.Context, tag string, draft bool) (*model.ReleaseRecord, error) {
	var wire releaseWire
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(createWire{Tag: tag, Draft: draft}).
		SetResult(&wire).
		Post("/releases")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, classify(resp)
	}
	return toRecord(&wire, resp.Header().Get("ETag")), nil
}

// AddOrReplaceAssets implements the Client interface.
func (c *HTTPClient) AddOrReplaceAssets(ctx context.Context, rec *model.ReleaseRecord, assets []model.ArtifactBundle) (*model.ReleaseRecord, error) {
	var wire releaseWire
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("If-Match", rec.ETag).
		SetBody(assetsWire{Assets: assets}).
		SetResult(&wire).
		SetPathParam("id", rec.ID).
		Patch("/releases/{id}/assets")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, classify(resp)
	}
	return toRecord(&wire, resp.Header().Get("ETag")), nil
}

// classify maps non-success HTTP statuses onto the package taxonomy.
func classify(resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code == http.StatusConflict || code == http.StatusPreconditionFailed:
		return fmt.Errorf("%w: host returned %d", ErrConflict, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w", ErrNotFound)
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: host returned %d", ErrRemoteUnavailable, code)
	default:
		return fmt.Errorf("release host rejected request: %d %s", code, resp.String())
	}
}

func toRecord(wire *releaseWire, etag string) *model.ReleaseRecord {
	return &model.ReleaseRecord{
		ID:     wire.ID,
		Tag:    wire.Tag,
		Draft:  wire.Draft,
		ETag:   etag,
		Assets: wire.Assets,
	}
}
