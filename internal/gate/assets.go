package gate

import (
	"context"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// DataAssets guards a host.DataAssetService.
type DataAssets struct {
	guard Guard
	inner host.DataAssetService
}

var _ host.DataAssetService = (*DataAssets)(nil)

// NewDataAssets wraps inner.
func NewDataAssets(guard Guard, inner host.DataAssetService) *DataAssets {
	return &DataAssets{guard: guard, inner: inner}
}

func (a *DataAssets) check(op string, required permission.Set) error {
	if err := a.guard.Check(op, required); err != nil {
		return err
	}
	if a.inner == nil {
		return unavailable("dataassets")
	}
	return nil
}

func (a *DataAssets) Assets(ctx context.Context) ([]host.Asset, error) {
	if err := a.check("dataassets.list", permission.ReadDataAssets); err != nil {
		return nil, err
	}
	return a.inner.Assets(ctx)
}

func (a *DataAssets) Capture(ctx context.Context, kind host.AssetKind) (host.Asset, error) {
	if err := a.check("dataassets.capture", permission.WriteDataAssets); err != nil {
		return host.Asset{}, err
	}
	return a.inner.Capture(ctx, kind)
}

func (a *DataAssets) CopyToClipboard(ctx context.Context, id string) error {
	if err := a.check("dataassets.copy", permission.ReadDataAssets); err != nil {
		return err
	}
	return a.inner.CopyToClipboard(ctx, id)
}

func (a *DataAssets) SaveToFile(ctx context.Context, id, path string) error {
	if err := a.check("dataassets.save_file", permission.WriteDataAssets|permission.FileSystem); err != nil {
		return err
	}
	return a.inner.SaveToFile(ctx, id, path)
}

func (a *DataAssets) SaveWithDialog(ctx context.Context, id string) (string, error) {
	if err := a.check("dataassets.save_dialog", permission.WriteDataAssets|permission.UI); err != nil {
		return "", err
	}
	return a.inner.SaveWithDialog(ctx, id)
}

func (a *DataAssets) SaveToDataBank(ctx context.Context, id, categoryID string) (host.Entry, error) {
	if err := a.check("dataassets.save_databank", permission.WriteDataAssets|permission.WriteDataBank); err != nil {
		return host.Entry{}, err
	}
	return a.inner.SaveToDataBank(ctx, id, categoryID)
}
