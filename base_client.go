package comply

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
)

type baseClient struct {
	proxyAddress string
	httpClient   *http.Client
}

func newBaseClient(
	proxyAddress string,
	httpClient *http.Client,
	allowInsecure bool,
) *baseClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: allowInsecure,
				},
			},
		}
	}
	return &baseClient{
		proxyAddress: proxyAddress,
		httpClient:   httpClient,
	}
}

func (b *baseClient) bearerTokenAuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

func (b *baseClient) executeRequest(
	ctx context.Context,
	req OutboundRequest,
) error {
	resp, err := b.submitRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if req.RespObj != nil {
		respBodyBytes, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "error reading response body")
		}
		if err := json.Unmarshal(respBodyBytes, req.RespObj); err != nil {
			return errors.Wrap(err, "error unmarshaling response body")
		}
	}
	return nil
}

func (b *baseClient) submitRequest(
	ctx context.Context,
	req OutboundRequest,
) (*http.Response, error) {
	var reqBodyReader io.Reader
	if req.ReqBodyObj != nil {
		switch rb := req.ReqBodyObj.(type) {
		case []byte:
			reqBodyReader = bytes.NewBuffer(rb)
		default:
			reqBodyBytes, err := json.Marshal(req.ReqBodyObj)
			if err != nil {
				return nil, errors.Wrap(err, "error marshaling request body")
			}
			reqBodyReader = bytes.NewBuffer(reqBodyBytes)
		}
	}

	r, err := http.NewRequest(
		req.Method,
		fmt.Sprintf("%s/%s", b.proxyAddress, req.Path),
		reqBodyReader,
	)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error creating request %s %s",
			req.Method,
			req.Path,
		)
	}
	r = r.WithContext(ctx)
	if len(req.QueryParams) > 0 {
		q := r.URL.Query()
		for k, v := range req.QueryParams {
			q.Set(k, v)
		}
		r.URL.RawQuery = q.Encode()
	}
	if reqBodyReader != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	// Caller-supplied headers can override defaults, but the Authorization
	// header is applied last and always belongs to the session.
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	for k, v := range req.AuthHeaders {
		r.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "error invoking proxy")
	}

	if (req.SuccessCode == 0 && resp.StatusCode != http.StatusOK) ||
		(req.SuccessCode != 0 && resp.StatusCode != req.SuccessCode) {
		defer resp.Body.Close()
		bodyBytes, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "error reading error response body")
		}
		// HTTP response code hints at what sort of error might be in the body
		// of the response
		var apiErr error
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			apiErr = &ErrSessionExpired{}
		case http.StatusForbidden:
			apiErr = &ErrPermissionDenied{}
		case http.StatusBadRequest:
			apiErr = &ErrBadRequest{}
		case http.StatusNotFound:
			apiErr = &ErrNotFound{}
		case http.StatusInternalServerError:
			apiErr = &ErrInternalServer{}
		default:
			if msg := errorMessageFromBody(bodyBytes); msg != "" {
				return nil, errors.Errorf(
					"received %d from proxy: %s",
					resp.StatusCode,
					msg,
				)
			}
			return nil, errors.Errorf(
				"received %d from proxy",
				resp.StatusCode,
			)
		}
		if len(bodyBytes) > 0 {
			// A body that doesn't parse as the structured error still maps to
			// the status-derived error type.
			json.Unmarshal(bodyBytes, apiErr) // nolint: errcheck
		}
		return nil, apiErr
	}
	return resp, nil
}

// errorMessageFromBody extracts a server-provided message from common error
// body shapes.
func errorMessageFromBody(bodyBytes []byte) string {
	if len(bodyBytes) == 0 {
		return ""
	}
	body := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}{}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Reason
}
