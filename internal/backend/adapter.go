// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend talks to the NL-to-SQL workbench server. Plain JSON calls
// return decoded values; the streaming endpoints return a stream.Opener so the
// session controller owns the request's lifetime.
package backend

import (
	"context"

	"nlsql/cli/internal/stream"
)

// API defines backend operations the CLI depends on.
// Implementations may call the real server or provide fakes for tests.
type API interface {
	// Login posts the credentials form and returns the session cookie value.
	Login(ctx context.Context, username, password string) (string, error)
	// Logout ends the server-side session.
	Logout(ctx context.Context) error
	// ActivateDataset selects the dataset later requests operate on.
	ActivateDataset(ctx context.Context, datasetID string) (Dataset, error)
	// DownloadCSV returns the last ask result as CSV bytes.
	DownloadCSV(ctx context.Context) ([]byte, error)

	Ask(question string) stream.Opener
	Train(req TrainRequest) stream.Opener
	GenerateQA(filename string, sql []byte) stream.Opener
	AnalyzeSchema() stream.Opener
}

// Dataset describes an activated dataset.
type Dataset struct {
	ID         string   `json:"-"`
	Message    string   `json:"message"`
	TableNames []string `json:"table_names"`
	DDL        []string `json:"ddl"`
	IsTrained  bool     `json:"is_trained"`
}

// QAPair is one question/SQL example sent with a training request.
type QAPair struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// TrainRequest is the multipart body of a training run.
type TrainRequest struct {
	DDL     string
	Doc     string
	QAPairs []QAPair
}
