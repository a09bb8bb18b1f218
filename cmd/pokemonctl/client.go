package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// apiClient issues requests against the service and prints response bodies.
type apiClient struct {
	http *resty.Client
	out  io.Writer
}

func newAPIClient(baseURL string, out io.Writer) *apiClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)
	return &apiClient{http: c, out: out}
}

// do sends the request and pretty-prints the body. Any status outside
// wantStatus is an error carrying the service's message.
func (c *apiClient) do(req *resty.Request, method, path string, wantStatus int) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.StatusCode() != wantStatus {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(resp.Body(), &e) == nil && e.Message != "" {
			return fmt.Errorf("http %d: %s", resp.StatusCode(), e.Message)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if len(resp.Body()) == 0 {
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp.Body(), "", "  "); err != nil {
		_, err = fmt.Fprintln(c.out, string(resp.Body()))
		return err
	}
	_, err = fmt.Fprintln(c.out, pretty.String())
	return err
}
