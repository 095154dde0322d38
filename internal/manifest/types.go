// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package manifest holds the workbench server's endpoint table.
package manifest

import "strings"

// HTTPEndpoints contains REST API endpoint paths.
type HTTPEndpoints struct {
	Login         string `yaml:"login"`          // e.g., "/login"
	Logout        string `yaml:"logout"`         // e.g., "/logout"
	Activate      string `yaml:"activate"`       // e.g., "/api/datasets/activate"
	Ask           string `yaml:"ask"`            // e.g., "/api/ask"
	Train         string `yaml:"train"`          // e.g., "/api/train"
	GenerateQA    string `yaml:"generate_qa"`    // e.g., "/api/generate_qa_from_sql"
	AnalyzeSchema string `yaml:"analyze_schema"` // e.g., "/api/analyze_schema"
	DownloadCSV   string `yaml:"download_csv"`   // e.g., "/api/ask/download_csv"
}

// Defaults returns the paths the workbench server mounts its routes on.
func Defaults() HTTPEndpoints {
	return HTTPEndpoints{
		Login:         "/login",
		Logout:        "/logout",
		Activate:      "/api/datasets/activate",
		Ask:           "/api/ask",
		Train:         "/api/train",
		GenerateQA:    "/api/generate_qa_from_sql",
		AnalyzeSchema: "/api/analyze_schema",
		DownloadCSV:   "/api/ask/download_csv",
	}
}

// Resolve applies config overrides, keyed by the yaml names above, to the defaults.
// Unknown keys are returned so the caller can warn about them.
func Resolve(overrides map[string]string) (HTTPEndpoints, []string) {
	e := Defaults()
	fields := map[string]*string{
		"login":          &e.Login,
		"logout":         &e.Logout,
		"activate":       &e.Activate,
		"ask":            &e.Ask,
		"train":          &e.Train,
		"generate_qa":    &e.GenerateQA,
		"analyze_schema": &e.AnalyzeSchema,
		"download_csv":   &e.DownloadCSV,
	}
	var unknown []string
	for k, v := range overrides {
		dst, ok := fields[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			if !strings.HasPrefix(v, "/") {
				v = "/" + v
			}
			*dst = v
		}
	}
	return e, unknown
}
