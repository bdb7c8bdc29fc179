package gate

import (
	"context"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// DataBank guards a host.DataBankService.
type DataBank struct {
	guard Guard
	inner host.DataBankService
}

var _ host.DataBankService = (*DataBank)(nil)

// NewDataBank wraps inner.
func NewDataBank(guard Guard, inner host.DataBankService) *DataBank {
	return &DataBank{guard: guard, inner: inner}
}

func (d *DataBank) check(op string, required permission.Set) error {
	if err := d.guard.Check(op, required); err != nil {
		return err
	}
	if d.inner == nil {
		return unavailable("databank")
	}
	return nil
}

func (d *DataBank) Categories(ctx context.Context) ([]host.Category, error) {
	if err := d.check("databank.categories", permission.ReadDataBank); err != nil {
		return nil, err
	}
	return d.inner.Categories(ctx)
}

func (d *DataBank) CreateCategory(ctx context.Context, category host.Category) (host.Category, error) {
	if err := d.check("databank.create_category", permission.WriteDataBank); err != nil {
		return host.Category{}, err
	}
	return d.inner.CreateCategory(ctx, category)
}

func (d *DataBank) DeleteCategory(ctx context.Context, id string) error {
	if err := d.check("databank.delete_category", permission.WriteDataBank); err != nil {
		return err
	}
	return d.inner.DeleteCategory(ctx, id)
}

func (d *DataBank) Entries(ctx context.Context, categoryID string) ([]host.Entry, error) {
	if err := d.check("databank.entries", permission.ReadDataBank); err != nil {
		return nil, err
	}
	return d.inner.Entries(ctx, categoryID)
}

func (d *DataBank) Entry(ctx context.Context, id string) (host.Entry, error) {
	if err := d.check("databank.entry", permission.ReadDataBank); err != nil {
		return host.Entry{}, err
	}
	return d.inner.Entry(ctx, id)
}

func (d *DataBank) CreateEntry(ctx context.Context, entry host.Entry) (host.Entry, error) {
	if err := d.check("databank.create_entry", permission.WriteDataBank); err != nil {
		return host.Entry{}, err
	}
	return d.inner.CreateEntry(ctx, entry)
}

func (d *DataBank) UpdateEntry(ctx context.Context, entry host.Entry) (host.Entry, error) {
	if err := d.check("databank.update_entry", permission.WriteDataBank); err != nil {
		return host.Entry{}, err
	}
	return d.inner.UpdateEntry(ctx, entry)
}

func (d *DataBank) DeleteEntry(ctx context.Context, id string) error {
	if err := d.check("databank.delete_entry", permission.WriteDataBank); err != nil {
		return err
	}
	return d.inner.DeleteEntry(ctx, id)
}

// ImportFile reads from the local filesystem, so it also needs FileSystem.
func (d *DataBank) ImportFile(ctx context.Context, categoryID, path string) (host.Entry, error) {
	if err := d.check("databank.import_file", permission.WriteDataBank|permission.FileSystem); err != nil {
		return host.Entry{}, err
	}
	return d.inner.ImportFile(ctx, categoryID, path)
}

func (d *DataBank) Save(ctx context.Context) error {
	if err := d.check("databank.save", permission.WriteDataBank); err != nil {
		return err
	}
	return d.inner.Save(ctx)
}

func (d *DataBank) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	if d.inner == nil {
		return func() {}
	}
	return d.inner.Subscribe(handler)
}
