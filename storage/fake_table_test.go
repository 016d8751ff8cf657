package storage

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// fakeTable keeps entities in memory and understands "Field eq 'value'"
// filters joined with "and".
type fakeTable struct {
	rows    map[string]map[string]any
	filters []string
	listErr error
}

func newFakeTable() *fakeTable {
	return &fakeTable{rows: map[string]map[string]any{}}
}

func rowKey(pk, rk string) string { return pk + "\x00" + rk }

// checkKeys rejects keys the table service refuses with 400 InvalidInput.
func checkKeys(keys ...string) error {
	for _, k := range keys {
		for _, r := range k {
			if r == '/' || r == '\\' || r == '#' || r == '?' || r < 0x20 || (r >= 0x7f && r <= 0x9f) {
				return &azcore.ResponseError{StatusCode: 400, ErrorCode: "InvalidInput"}
			}
		}
	}
	return nil
}

func (f *fakeTable) AddEntity(ctx context.Context, entity []byte, _ *aztables.AddEntityOptions) (aztables.AddEntityResponse, error) {
	var row map[string]any
	if err := json.Unmarshal(entity, &row); err != nil {
		return aztables.AddEntityResponse{}, err
	}
	pk, rk := row["PartitionKey"].(string), row["RowKey"].(string)
	if err := checkKeys(pk, rk); err != nil {
		return aztables.AddEntityResponse{}, err
	}
	k := rowKey(pk, rk)
	if _, exists := f.rows[k]; exists {
		return aztables.AddEntityResponse{}, &azcore.ResponseError{StatusCode: 409, ErrorCode: "EntityAlreadyExists"}
	}
	f.rows[k] = row
	return aztables.AddEntityResponse{}, nil
}

func (f *fakeTable) GetEntity(ctx context.Context, pk, rk string, _ *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	if err := checkKeys(pk, rk); err != nil {
		return aztables.GetEntityResponse{}, err
	}
	row, ok := f.rows[rowKey(pk, rk)]
	if !ok {
		return aztables.GetEntityResponse{}, &azcore.ResponseError{StatusCode: 404}
	}
	data, err := json.Marshal(row)
	if err != nil {
		return aztables.GetEntityResponse{}, err
	}
	return aztables.GetEntityResponse{Value: data}, nil
}

func (f *fakeTable) UpdateEntity(ctx context.Context, entity []byte, opts *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error) {
	var changes map[string]any
	if err := json.Unmarshal(entity, &changes); err != nil {
		return aztables.UpdateEntityResponse{}, err
	}
	pk, rk := changes["PartitionKey"].(string), changes["RowKey"].(string)
	if err := checkKeys(pk, rk); err != nil {
		return aztables.UpdateEntityResponse{}, err
	}
	k := rowKey(pk, rk)
	row, ok := f.rows[k]
	if !ok {
		return aztables.UpdateEntityResponse{}, &azcore.ResponseError{StatusCode: 404}
	}
	if opts == nil || opts.UpdateMode != aztables.UpdateModeMerge {
		row = map[string]any{}
	}
	for field, v := range changes {
		row[field] = v
	}
	f.rows[k] = row
	return aztables.UpdateEntityResponse{}, nil
}

func (f *fakeTable) DeleteEntity(ctx context.Context, pk, rk string, _ *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error) {
	if err := checkKeys(pk, rk); err != nil {
		return aztables.DeleteEntityResponse{}, err
	}
	k := rowKey(pk, rk)
	if _, ok := f.rows[k]; !ok {
		return aztables.DeleteEntityResponse{}, &azcore.ResponseError{StatusCode: 404}
	}
	delete(f.rows, k)
	return aztables.DeleteEntityResponse{}, nil
}

func (f *fakeTable) NewListEntitiesPager(opts *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	filter := ""
	if opts != nil && opts.Filter != nil {
		filter = *opts.Filter
	}
	f.filters = append(f.filters, filter)
	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(aztables.ListEntitiesResponse) bool { return false },
		Fetcher: func(ctx context.Context, _ *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			if f.listErr != nil {
				return aztables.ListEntitiesResponse{}, f.listErr
			}
			keys := make([]string, 0, len(f.rows))
			for k := range f.rows {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var resp aztables.ListEntitiesResponse
			for _, k := range keys {
				if !matchFilter(f.rows[k], filter) {
					continue
				}
				data, err := json.Marshal(f.rows[k])
				if err != nil {
					return aztables.ListEntitiesResponse{}, err
				}
				resp.Entities = append(resp.Entities, data)
			}
			return resp, nil
		},
	})
}

func matchFilter(row map[string]any, filter string) bool {
	if filter == "" {
		return true
	}
	for _, clause := range strings.Split(filter, " and ") {
		parts := strings.SplitN(clause, " eq ", 2)
		if len(parts) != 2 {
			return false
		}
		want := strings.TrimSuffix(strings.TrimPrefix(parts[1], "'"), "'")
		want = strings.ReplaceAll(want, "''", "'")
		got, _ := row[parts[0]].(string)
		if got != want {
			return false
		}
	}
	return true
}

func newTestStorage() (*Storage, *fakeTable, *fakeTable, *fakeTable) {
	users, projects, tasks := newFakeTable(), newFakeTable(), newFakeTable()
	return &Storage{userTable: users, projectTable: projects, taskTable: tasks}, users, projects, tasks
}
