package prov

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ksysoev/wikiview/pkg/core"
)

const (
	opResolveNode = "get wiki node"
	opListRecords = "list bitable records"

	pageSize = 20
)

type nodeResponse struct {
	Data struct {
		Node struct {
			ObjToken string `json:"obj_token"`
		} `json:"node"`
	} `json:"data"`
}

type recordItem struct {
	Fields map[string]any `json:"fields"`
	Record *struct {
		Fields map[string]any `json:"fields"`
	} `json:"record"`
	RecordID string `json:"record_id"`
}

type recordsResponse struct {
	Data struct {
		Items   []recordItem `json:"items"`
		HasMore bool         `json:"has_more"`
		Total   int          `json:"total"`
	} `json:"data"`
}

// ResolveNode resolves a wiki node token to the token of the object it points to (the bitable app).
func (f *Feishu) ResolveNode(ctx context.Context, token, nodeToken string) (string, error) {
	slog.InfoContext(ctx, "Resolving wiki node", slog.String("node_token", nodeToken))

	data, err := f.do(ctx, request{
		op:     opResolveNode,
		method: http.MethodGet,
		url:    f.apiURL + "/wiki/v2/spaces/get_node",
		header: bearer(token),
		query: url.Values{
			"token":    {nodeToken},
			"obj_type": {"wiki"},
		},
	})
	if err != nil {
		return "", err
	}

	var resp nodeResponse
	if err := decode(opResolveNode, data, &resp); err != nil {
		return "", err
	}

	if resp.Data.Node.ObjToken == "" {
		err := opError(opResolveNode, "response does not contain obj_token")
		slog.ErrorContext(ctx, "Failed to resolve wiki node", slog.Any("error", err))

		return "", err
	}

	slog.InfoContext(ctx, "Resolved wiki node", slog.String("obj_token", resp.Data.Node.ObjToken))

	return resp.Data.Node.ObjToken, nil
}

// ListRecords returns the first page of records of the configured table. Either the complete page
// or an error is returned, never both. A token rejected by the API is dropped from the cache.
func (f *Feishu) ListRecords(ctx context.Context) ([]core.Record, error) {
	if f.baseID == "" {
		return nil, &ConfigError{Field: "base_id"}
	}

	if f.tableID == "" {
		return nil, &ConfigError{Field: "table_id"}
	}

	token, err := f.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	appToken, err := f.ResolveNode(ctx, token, f.baseID)
	if err != nil {
		f.dropRejectedToken(ctx, err)
		return nil, err
	}

	records, err := f.fetchRecords(ctx, token, appToken)
	if err != nil {
		f.dropRejectedToken(ctx, err)
		return nil, err
	}

	slog.InfoContext(ctx, "Fetched table records", slog.Int("count", len(records)))

	return records, nil
}

func (f *Feishu) fetchRecords(ctx context.Context, token, appToken string) ([]core.Record, error) {
	slog.InfoContext(ctx, "Fetching table records",
		slog.String("app_token", appToken),
		slog.String("table_id", f.tableID),
	)

	data, err := f.do(ctx, request{
		op:     opListRecords,
		method: http.MethodGet,
		url:    f.apiURL + "/bitable/v1/apps/" + url.PathEscape(appToken) + "/tables/" + url.PathEscape(f.tableID) + "/records",
		header: bearer(token),
		query:  url.Values{"page_size": {strconv.Itoa(pageSize)}},
	})
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var resp recordsResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, &ProtocolError{Op: opListRecords, Msg: "failed to decode response", Err: err}
	}

	records := make([]core.Record, 0, len(resp.Data.Items))

	for _, it := range resp.Data.Items {
		fields := it.Fields
		if fields == nil && it.Record != nil {
			fields = it.Record.Fields
		}

		if fields == nil {
			fields = map[string]any{}
		}

		records = append(records, core.Record{ID: it.RecordID, Fields: fields})
	}

	return records, nil
}

func (f *Feishu) dropRejectedToken(ctx context.Context, err error) {
	if isUnauthorized(err) {
		f.tokens.Invalidate(ctx)
	}
}
