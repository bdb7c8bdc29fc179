package inmem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
)

// CaptureFunc produces the bytes of a new asset.
type CaptureFunc func(ctx context.Context, kind host.AssetKind) ([]byte, error)

// DataAssets is an in-memory host.DataAssetService. Without a display it has no
// real capture or dialog; both are simulated.
type DataAssets struct {
	mu        sync.RWMutex
	assets    []host.Asset
	clipboard []byte
	capture   CaptureFunc
	dialogDir string
	bank      host.DataBankService
}

// NewDataAssets creates an asset service. bank receives assets saved to the
// data-bank and dialogDir stands in for the save dialog's chosen folder.
func NewDataAssets(bank host.DataBankService, dialogDir string, capture CaptureFunc) *DataAssets {
	if capture == nil {
		capture = func(_ context.Context, kind host.AssetKind) ([]byte, error) {
			return []byte(fmt.Sprintf("%s captured at %s", kind, time.Now().Format(time.RFC3339))), nil
		}
	}
	return &DataAssets{capture: capture, dialogDir: dialogDir, bank: bank}
}

func (s *DataAssets) Assets(_ context.Context) ([]host.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]host.Asset, len(s.assets))
	copy(out, s.assets)
	return out, nil
}

func (s *DataAssets) Capture(ctx context.Context, kind host.AssetKind) (host.Asset, error) {
	data, err := s.capture(ctx, kind)
	if err != nil {
		return host.Asset{}, fmt.Errorf("capture %s: %w", kind, err)
	}
	asset := host.Asset{
		ID:         uuid.NewString(),
		Kind:       kind,
		Name:       fmt.Sprintf("%s-%d", kind, time.Now().Unix()),
		Data:       data,
		CapturedAt: time.Now(),
	}
	s.mu.Lock()
	s.assets = append(s.assets, asset)
	s.mu.Unlock()
	return asset, nil
}

func (s *DataAssets) CopyToClipboard(_ context.Context, id string) error {
	asset, err := s.find(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.clipboard = append([]byte(nil), asset.Data...)
	s.mu.Unlock()
	return nil
}

// Clipboard returns what was last copied.
func (s *DataAssets) Clipboard() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.clipboard...)
}

func (s *DataAssets) SaveToFile(_ context.Context, id, path string) error {
	asset, err := s.find(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, asset.Data, 0o644); err != nil {
		return fmt.Errorf("write asset %s: %w", id, err)
	}
	return nil
}

func (s *DataAssets) SaveWithDialog(ctx context.Context, id string) (string, error) {
	if s.dialogDir == "" {
		return "", fmt.Errorf("save dialog unavailable")
	}
	asset, err := s.find(id)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dialogDir, asset.Name)
	if err := s.SaveToFile(ctx, id, path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *DataAssets) SaveToDataBank(ctx context.Context, id, categoryID string) (host.Entry, error) {
	if s.bank == nil {
		return host.Entry{}, fmt.Errorf("data-bank unavailable")
	}
	asset, err := s.find(id)
	if err != nil {
		return host.Entry{}, err
	}
	return s.bank.CreateEntry(ctx, host.Entry{
		CategoryID: categoryID,
		Title:      asset.Name,
		Content:    string(asset.Data),
		Source:     string(asset.Kind),
	})
}

func (s *DataAssets) find(id string) (host.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, asset := range s.assets {
		if asset.ID == id {
			return asset, nil
		}
	}
	return host.Asset{}, fmt.Errorf("asset %s: %w", id, host.ErrNotFound)
}
