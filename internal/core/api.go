package core

import (
	"time"

	"assetgate/internal/assets"
)

// AssetInfo is the JSON shape of a single asset's metadata.
type AssetInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// ListAssetsResponse is returned by GET /assets/.
type ListAssetsResponse struct {
	Assets     []string `json:"assets"`
	TotalCount int      `json:"total_count"`
}

// BatchAssetInfoRequest is the body of POST /assets/batch/info.
type BatchAssetInfoRequest struct {
	AssetNames []string `json:"asset_names"`
}

// BatchAssetInfoResponse lists the assets that could be looked up.
type BatchAssetInfoResponse struct {
	Assets []AssetInfo `json:"assets"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewAssetInfo converts store metadata to its JSON shape. An unknown
// modification time is rendered as an empty string.
func NewAssetInfo(info assets.Info) AssetInfo {
	lastModified := ""
	if !info.LastModified.IsZero() {
		lastModified = info.LastModified.UTC().Format(time.RFC3339)
	}
	return AssetInfo{
		Name:         info.Name,
		Size:         info.Size,
		LastModified: lastModified,
	}
}
