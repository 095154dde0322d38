// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"io"
	"net/http"
)

// ActivateDataset marks datasetID active in the server session.
func (h *HTTP) ActivateDataset(ctx context.Context, datasetID string) (Dataset, error) {
	var ds Dataset
	if err := h.postJSON(ctx, "activate dataset", h.endpoints.Activate, map[string]string{"dataset_id": datasetID}, &ds); err != nil {
		return Dataset{}, err
	}
	ds.ID = datasetID
	return ds, nil
}

// DownloadCSV fetches the last ask result as CSV. The server prefixes a UTF-8 BOM.
func (h *HTTP) DownloadCSV(ctx context.Context) ([]byte, error) {
	req, err := h.newRequest(ctx, http.MethodGet, h.endpoints.DownloadCSV, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.do(h.client, "download csv", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
