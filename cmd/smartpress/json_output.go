package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"smartpress/internal/queue"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type itemJSON struct {
	ID           int64  `json:"id"`
	SourcePath   string `json:"sourcePath"`
	DisplayName  string `json:"displayName"`
	MediaType    string `json:"mediaType"`
	Mode         string `json:"mode"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	DownloadLink string `json:"downloadLink,omitempty"`
	OriginalSize int64  `json:"originalSize,omitempty"`
	NewSize      int64  `json:"newSize,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func itemsToJSON(items []*queue.Item) []itemJSON {
	out := make([]itemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, itemJSON{
			ID:           item.ID,
			SourcePath:   item.SourcePath,
			DisplayName:  item.DisplayName,
			MediaType:    item.MediaType,
			Mode:         string(item.Mode),
			Status:       string(item.Status),
			Progress:     item.Progress,
			DownloadLink: item.DownloadLink,
			OriginalSize: item.OriginalSize,
			NewSize:      item.NewSize,
			ErrorMessage: item.ErrorMessage,
			CreatedAt:    item.CreatedAt.Format(time.RFC3339),
			UpdatedAt:    item.UpdatedAt.Format(time.RFC3339),
		})
	}
	return out
}

type statsJSON struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Compressing int `json:"compressing"`
	Done        int `json:"done"`
	Error       int `json:"error"`
}
