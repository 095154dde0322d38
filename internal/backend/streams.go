// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	apperrors "nlsql/cli/internal/errors"
	"nlsql/cli/internal/stream"
)

// Ask streams the answer to a natural-language question.
func (h *HTTP) Ask(question string) stream.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		b, err := json.Marshal(map[string]string{"question": question})
		if err != nil {
			return nil, err
		}
		return h.openStream(ctx, "ask", h.endpoints.Ask, "application/json", b)
	}
}

// Train streams a training run over the given DDL, documentation and examples.
func (h *HTTP) Train(tr TrainRequest) stream.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		pairs := tr.QAPairs
		if pairs == nil {
			pairs = []QAPair{}
		}
		qa, err := json.Marshal(pairs)
		if err != nil {
			return nil, err
		}
		body, contentType, err := multipartBody(func(w *multipart.Writer) error {
			for _, f := range [][2]string{{"ddl", tr.DDL}, {"doc", tr.Doc}, {"qa_pairs", string(qa)}} {
				if err := w.WriteField(f[0], f[1]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return h.openStream(ctx, "train", h.endpoints.Train, contentType, body)
	}
}

// GenerateQA uploads a SQL file and streams the generated question/SQL pairs.
func (h *HTTP) GenerateQA(filename string, sql []byte) stream.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		body, contentType, err := multipartBody(func(w *multipart.Writer) error {
			part, err := w.CreateFormFile("sql_file", filename)
			if err != nil {
				return err
			}
			_, err = part.Write(sql)
			return err
		})
		if err != nil {
			return nil, err
		}
		return h.openStream(ctx, "generate qa", h.endpoints.GenerateQA, contentType, body)
	}
}

// AnalyzeSchema runs schema analysis. The server answers with one JSON
// document, which is framed as a single event so the analysis flows through
// the same controller as the streaming channels. A server that streams is
// passed through unchanged.
func (h *HTTP) AnalyzeSchema() stream.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		req, err := h.newRequest(ctx, http.MethodPost, h.endpoints.AnalyzeSchema, nil)
		if err != nil {
			return nil, err
		}
		resp, err := h.do(h.stream, "analyze schema", req)
		if err != nil {
			return nil, err
		}
		if isEventStream(resp.Header.Get("Content-Type")) {
			return streamBody(resp)
		}
		defer resp.Body.Close()
		doc, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.TransportError, "analyze schema: read response", err)
		}
		if len(bytes.TrimSpace(doc)) == 0 {
			return nil, apperrors.New(apperrors.StreamUnavailable, "analyze schema: empty response")
		}
		return io.NopCloser(bytes.NewReader(FrameJSON(doc))), nil
	}
}

// FrameJSON wraps a JSON document as one SSE data frame.
func FrameJSON(doc []byte) []byte {
	frame := make([]byte, 0, len(doc)+8)
	for i, line := range bytes.Split(bytes.TrimSpace(doc), []byte("\n")) {
		if i > 0 {
			frame = append(frame, '\n')
		}
		frame = append(frame, "data: "...)
		frame = append(frame, line...)
	}
	return append(frame, "\n\n"...)
}

func (h *HTTP) openStream(ctx context.Context, op, path, contentType string, body []byte) (io.ReadCloser, error) {
	req, err := h.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := h.do(h.stream, op, req)
	if err != nil {
		return nil, err
	}
	return streamBody(resp)
}

// streamBody rejects responses that carry no stream at all.
func streamBody(resp *http.Response) (io.ReadCloser, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, apperrors.New(apperrors.StreamUnavailable, "response has no readable body")
	}
	return resp.Body, nil
}

func multipartBody(fill func(w *multipart.Writer) error) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func isEventStream(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/event-stream"
}
