package gateway

import (
	"context"
	"fmt"

	"triage-chatbot/pkg"
)

// Departments lists the hospital department catalog from
// GET {base}/departments.
func (c *TriageClient) Departments(ctx context.Context) ([]pkg.Department, error) {
	var resp pkg.DepartmentResponse
	if err := c.getJSON(ctx, "/departments", &resp); err != nil {
		return nil, err
	}
	return resp.Departments, nil
}

// Department fetches a single department by id from
// GET {base}/departments/{id}.
func (c *TriageClient) Department(ctx context.Context, id int) (*pkg.Department, error) {
	var dept pkg.Department
	if err := c.getJSON(ctx, fmt.Sprintf("/departments/%d", id), &dept); err != nil {
		return nil, err
	}
	return &dept, nil
}
