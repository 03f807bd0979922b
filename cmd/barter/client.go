package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/barterbay/barterd/pkg/util"
)

// callDaemon sends the request to the configured daemon and prints the JSON
// response. Non 2xx responses are returned as errors.
func callDaemon(
	method, path string, query url.Values, body interface{}, header map[string]string,
) error {
	state, err := getState()
	if err != nil {
		return err
	}
	baseURL, ok := state[urlKey]
	if !ok || baseURL == "" {
		return fmt.Errorf("set the daemon url with `config set %s`", urlKey)
	}

	endpoint := strings.TrimSuffix(baseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyString string
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyString = string(buf)
	}

	headers := map[string]string{}
	if token := state[tokenKey]; token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	for k, v := range header {
		headers[k] = v
	}

	status, respBody, err := util.NewHTTPRequest(method, endpoint, bodyString, headers)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("request failed with status %d: %s", status, errorMessage(respBody))
	}

	printRespJSON(respBody)
	return nil
}

func errorMessage(body string) string {
	var resp struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil || resp.Error == nil {
		return body
	}
	return fmt.Sprintf("%s (%s)", resp.Error.Message, resp.Error.Code)
}
