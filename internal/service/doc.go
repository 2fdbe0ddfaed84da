// Package service contains the task use cases. It sits between the HTTP
// layer and the store (defined in internal/store) and owns the list
// pipeline: filter, then search, then sort, then paginate.
//
// Key components:
//
// 1. TaskService:
//   - CRUD operations over tasks plus access to the backing file for export
//   - Validates input before any store call so rejected requests never mutate state
//
// 2. Query helpers:
//   - FilterTasks, SearchTasks, SortTasks and Paginate are pure functions over slices
//   - TaskQuery.Normalize applies defaults and rejects out-of-range values
//
// 3. Error Handling:
//   - Store not-found errors become ErrTaskNotFound and ErrExportNotFound
//   - Other store failures are wrapped in TaskServiceError with the operation name
//
// Persisted mutations are announced through an optional events.EventEmitter.
package service
