// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Workflow Manager endpoints
const (
	WfmWorkflowPath   = "/wfm/api/v1/workflow"
	WfmValidatePath   = "/wfm/api/v1/workflow/validate"
	WfmDefinitionPath = "/wfm/api/v1/workflow/definition"
	WfmExecutionPath  = "/wfm/api/v1/execution/synchronous"

	// WfmDefaultEnv is the execution environment used for workflow runs
	WfmDefaultEnv = "DefaultEnv"
)

// Workflow lifecycle states
const (
	WorkflowStatusDraft     = "DRAFT"
	WorkflowStatusPublished = "PUBLISHED"
)

// Workflow describes a workflow registered in the Workflow Manager
type Workflow struct {
	// ID is the workflow UUID assigned by the Workflow Manager
	ID string

	// Name is the workflow name from the definition
	Name string

	// Status is the lifecycle state (DRAFT or PUBLISHED)
	Status string
}

// WorkflowResult describes the outcome of a workflow operation
type WorkflowResult struct {
	// Changed reports whether the operation modified controller state
	Changed bool

	// Msg is a human-readable summary of what happened
	Msg string

	// ID is the workflow UUID (when known)
	ID string

	// Res is the response of the last request made
	Res Res
}

// workflowNameFromDefinition extracts the workflow name from a Mistral
// workflow definition. The name is the first top-level mapping key other
// than "version".
func workflowNameFromDefinition(definition string) (string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(definition), &doc); err != nil {
		return "", fmt.Errorf("parsing workflow definition: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return "", fmt.Errorf("workflow definition is not a YAML mapping")
	}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if key := root.Content[i].Value; key != "version" {
			return key, nil
		}
	}
	return "", fmt.Errorf("workflow definition has no workflow name")
}

// isWorkflowID reports whether an identifier is a workflow UUID rather than
// a workflow name.
func isWorkflowID(identifier string) bool {
	return uuid.Validate(identifier) == nil
}

// GetWorkflowByName looks up a workflow by its exact name. The second return
// value reports whether the workflow exists.
//
// Example:
//
//	wf, found, err := client.GetWorkflowByName(ctx, "nodeBackup")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if found {
//	    fmt.Println(wf.ID, wf.Status)
//	}
func (c *Client) GetWorkflowByName(ctx context.Context, name string) (Workflow, bool, error) {
	res, err := c.Get(ctx, WfmWorkflowPath+"?name="+url.QueryEscape(name))
	if err != nil {
		return Workflow{}, false, err
	}
	for _, item := range res.Get("response.data").Array() {
		if item.Get("name").String() != name {
			continue
		}
		wf := Workflow{
			ID:     item.Get("id").String(),
			Name:   name,
			Status: item.Get("details.status").String(),
		}
		if wf.Status == "" {
			wf.Status = item.Get("status").String()
		}
		return wf, true, nil
	}
	return Workflow{}, false, nil
}

// resolveWorkflow resolves a workflow identifier (UUID or name) to the
// workflow. The second return value reports whether the workflow exists.
func (c *Client) resolveWorkflow(ctx context.Context, identifier string) (Workflow, bool, error) {
	if !isWorkflowID(identifier) {
		return c.GetWorkflowByName(ctx, identifier)
	}
	res, err := c.Get(ctx, WfmWorkflowPath+"/"+identifier)
	if err != nil {
		var apiErr *ApiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return Workflow{}, false, nil
		}
		return Workflow{}, false, err
	}
	data := res.Get("response.data")
	wf := Workflow{
		ID:     identifier,
		Name:   data.Get("name").String(),
		Status: data.Get("details.status").String(),
	}
	if wf.Status == "" {
		wf.Status = data.Get("status").String()
	}
	return wf, true, nil
}

// ValidateWorkflow validates a workflow definition without registering it.
//
// Returns an error describing the validation failure when the definition is
// invalid.
func (c *Client) ValidateWorkflow(ctx context.Context, definition string) error {
	res, err := c.Post(ctx, WfmValidatePath, definition,
		ContentType(MediaTypeText))
	if err != nil {
		return err
	}
	data := res.Get("response.data")
	if data.Get("valid").Exists() && !data.Get("valid").Bool() {
		return fmt.Errorf("workflow definition invalid: %s", data.Get("error").String())
	}
	return nil
}

// DefineWorkflow registers a workflow definition, creating the workflow or
// updating it in place.
//
// New workflows are created and published. Existing workflows are only
// touched when the definition actually changed: the workflow is moved to
// DRAFT, the definition replaced and the workflow published again. An
// unchanged definition is a no-op.
//
// Example:
//
//	definition, _ := os.ReadFile("nodeBackup.yaml")
//	result, err := client.DefineWorkflow(ctx, string(definition))
func (c *Client) DefineWorkflow(ctx context.Context, definition string) (WorkflowResult, error) {
	name, err := workflowNameFromDefinition(definition)
	if err != nil {
		return WorkflowResult{}, err
	}

	wf, found, err := c.GetWorkflowByName(ctx, name)
	if err != nil {
		return WorkflowResult{}, err
	}

	if !found {
		res, err := c.Post(ctx, WfmDefinitionPath+"?provider=&version=", definition,
			ContentType(MediaTypeText))
		if err != nil {
			return WorkflowResult{Res: res}, err
		}
		id := res.Get("response.data.0.id").String()
		if id == "" {
			id = res.Get("response.data.id").String()
		}
		if id == "" {
			return WorkflowResult{Res: res}, fmt.Errorf("workflow %s created but no id in response", name)
		}
		if res, err := c.setWorkflowStatus(ctx, id, WorkflowStatusPublished); err != nil {
			return WorkflowResult{ID: id, Changed: true, Res: res}, err
		}
		c.logger.Info(ctx, "workflow created",
			"name", name,
			"id", id)
		return WorkflowResult{Changed: true, Msg: "workflow created", ID: id, Res: res}, nil
	}

	current, err := c.Get(ctx, WfmWorkflowPath+"/"+wf.ID+"/definition",
		Accept(MediaTypeText))
	if err != nil {
		return WorkflowResult{ID: wf.ID}, err
	}
	if strings.TrimSpace(current.Body()) == strings.TrimSpace(definition) {
		return WorkflowResult{Msg: "workflow up to date", ID: wf.ID, Res: current}, nil
	}

	if res, err := c.setWorkflowStatus(ctx, wf.ID, WorkflowStatusDraft); err != nil {
		return WorkflowResult{ID: wf.ID, Res: res}, err
	}
	res, err := c.Put(ctx, WfmWorkflowPath+"/"+wf.ID+"/definition", definition,
		ContentType(MediaTypeText))
	if err != nil {
		return WorkflowResult{ID: wf.ID, Res: res}, err
	}
	if res, err := c.setWorkflowStatus(ctx, wf.ID, WorkflowStatusPublished); err != nil {
		return WorkflowResult{ID: wf.ID, Changed: true, Res: res}, err
	}

	c.logger.Info(ctx, "workflow updated",
		"name", name,
		"id", wf.ID)
	return WorkflowResult{Changed: true, Msg: "workflow updated", ID: wf.ID, Res: res}, nil
}

// setWorkflowStatus moves a workflow to the given lifecycle state.
func (c *Client) setWorkflowStatus(ctx context.Context, id, status string) (Res, error) {
	body := Body{}.Set("status", status)
	return c.Put(ctx, WfmWorkflowPath+"/"+id+"/status", body.Str)
}

// UploadWorkflow registers a workflow from a local file or directory.
//
// A directory must contain exactly one YAML workflow definition. When the
// directory additionally contains a README.md it is attached as the workflow
// readme, and a JSON file named after the definition is attached as the
// workflow UI schema.
//
// Example (directory layout):
//
//	nodeBackup/
//	    nodeBackup.yaml    workflow definition
//	    nodeBackup.json    UI schema (optional)
//	    README.md          documentation (optional)
func (c *Client) UploadWorkflow(ctx context.Context, path string) (WorkflowResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return WorkflowResult{}, fmt.Errorf("stat %s: %w", path, err)
	}

	definitionPath := path
	dir := filepath.Dir(path)
	if info.IsDir() {
		dir = path
		definitionPath, err = findWorkflowDefinition(path)
		if err != nil {
			return WorkflowResult{}, err
		}
	}

	definition, err := os.ReadFile(definitionPath)
	if err != nil {
		return WorkflowResult{}, fmt.Errorf("reading %s: %w", definitionPath, err)
	}

	result, err := c.DefineWorkflow(ctx, string(definition))
	if err != nil {
		return result, err
	}

	// Attach optional documentation and UI schema
	base := strings.TrimSuffix(filepath.Base(definitionPath), filepath.Ext(definitionPath))

	if readme, err := os.ReadFile(filepath.Join(dir, "README.md")); err == nil {
		if _, err := c.Put(ctx, WfmWorkflowPath+"/"+result.ID+"/readme", string(readme),
			ContentType(MediaTypeText)); err != nil {
			return result, fmt.Errorf("uploading readme: %w", err)
		}
		result.Changed = true
	}

	if ui, err := os.ReadFile(filepath.Join(dir, base+".json")); err == nil {
		if _, err := c.Put(ctx, WfmWorkflowPath+"/"+result.ID+"/ui", string(ui)); err != nil {
			return result, fmt.Errorf("uploading UI schema: %w", err)
		}
		result.Changed = true
	}

	return result, nil
}

// findWorkflowDefinition locates the single YAML definition in a workflow
// directory.
func findWorkflowDefinition(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}
	var definitions []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			definitions = append(definitions, filepath.Join(dir, entry.Name()))
		}
	}
	switch len(definitions) {
	case 0:
		return "", fmt.Errorf("no workflow definition (.yaml/.yml) in %s", dir)
	case 1:
		return definitions[0], nil
	default:
		return "", fmt.Errorf("multiple workflow definitions in %s, expected exactly one", dir)
	}
}

// ExecuteWorkflow runs a workflow synchronously and waits for the result.
//
// The workflow is identified by UUID or by name. The input is a JSON object
// of workflow input parameters.
//
// Synchronous executions can run long; set a generous timeout via
// nsp.Timeout or a context deadline.
//
// Example:
//
//	input := nsp.Body{}.Set("neId", "10.0.0.1").Str
//	res, err := client.ExecuteWorkflow(ctx, "nodeBackup", input,
//	    nsp.Timeout(10*time.Minute))
func (c *Client) ExecuteWorkflow(ctx context.Context, identifier, input string, mods ...func(*Req)) (Res, error) {
	wf, found, err := c.resolveWorkflow(ctx, identifier)
	if err != nil {
		return Res{}, err
	}
	if !found {
		return Res{}, fmt.Errorf("workflow %q not found", identifier)
	}

	if input == "" {
		input = "{}"
	}
	body := Body{}.
		Set("workflow_id", wf.ID).
		SetRaw("input", input).
		Set("params.env", WfmDefaultEnv).
		Set("description", "executed by go-nsp")

	res, err := c.Post(ctx, WfmExecutionPath, body.Str, mods...)
	if err != nil {
		return res, err
	}

	state := res.Get("response.data.state").String()
	if state != "" && state != "SUCCESS" {
		return res, fmt.Errorf("workflow %s execution %s: %s",
			wf.Name, strings.ToLower(state), res.Get("response.data.state_info").String())
	}
	return res, nil
}

// DeleteWorkflow deletes a workflow identified by UUID or name. Deleting an
// absent workflow is not an error (Changed is false in that case).
//
// Published workflows are moved to DRAFT first since the Workflow Manager
// refuses to delete published workflows.
func (c *Client) DeleteWorkflow(ctx context.Context, identifier string) (WorkflowResult, error) {
	wf, found, err := c.resolveWorkflow(ctx, identifier)
	if err != nil {
		return WorkflowResult{}, err
	}
	if !found {
		return WorkflowResult{Msg: "workflow not found"}, nil
	}

	if wf.Status == WorkflowStatusPublished {
		if res, err := c.setWorkflowStatus(ctx, wf.ID, WorkflowStatusDraft); err != nil {
			return WorkflowResult{ID: wf.ID, Res: res}, err
		}
	}

	res, err := c.Delete(ctx, WfmWorkflowPath+"/"+wf.ID)
	if err != nil {
		return WorkflowResult{ID: wf.ID, Res: res}, err
	}

	c.logger.Info(ctx, "workflow deleted",
		"name", wf.Name,
		"id", wf.ID)
	return WorkflowResult{Changed: true, Msg: "workflow deleted", ID: wf.ID, Res: res}, nil
}
