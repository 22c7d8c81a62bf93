package httpclient

import (
	"context"
	"net/http"
	"time"

	"incrementum/pkg/logger"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

type BaseResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

type HTTPClient interface {
	Get(ctx context.Context, endpoint string, queryParams map[string]string, headers map[string]string, result interface{}) (*BaseResponse, error)
}

type RestyClient struct {
	client *resty.Client
	log    *logger.Logger
}

// New builds a resty backed client. Requests are not retried; timeout bounds
// every call.
func New(log *logger.Logger, baseURL string, timeout time.Duration, bearerToken string) HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	if bearerToken != "" {
		client.SetAuthToken(bearerToken)
	}

	return &RestyClient{client: client, log: log}
}

// GET request with optional query params
func (rc *RestyClient) Get(ctx context.Context, endpoint string, queryParams map[string]string, headers map[string]string, result interface{}) (*BaseResponse, error) {
	req := rc.client.R().SetContext(ctx).SetResult(result)

	if queryParams != nil {
		req.SetQueryParams(queryParams)
	}

	if headers != nil {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(endpoint)
	if resp == nil {
		return &BaseResponse{}, err
	}
	if err != nil {
		rc.log.DebugContext(ctx, "HTTP GET failed",
			logger.StringField("endpoint", endpoint),
			logger.ErrorField(err),
		)
	}
	return &BaseResponse{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Headers:    resp.Header(),
	}, err
}
