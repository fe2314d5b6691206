package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

type compatModelList struct {
	Data []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

// ListCompatibleModels reads GET {url} from an endpoint that answers in the
// OpenAI model list shape. header sets the auth headers for the backend.
func ListCompatibleModels(ctx context.Context, cli *http.Client, typ Type, url string, header http.Header) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s models request: %w", typ, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s models: %w", typ, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s models: status %d: %s", typ, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list compatModelList
	if err := sonic.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode %s models: %w", typ, err)
	}

	out := make([]ModelInfo, 0, len(list.Data))
	for _, item := range list.Data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(item.DisplayName)
		if name == "" {
			name = id
		}
		out = append(out, ModelInfo{ID: id, Name: name, Provider: typ})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no models returned from %s", typ)
	}
	return out, nil
}
