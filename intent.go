// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Intent Manager endpoint roots
const (
	ibnRootPath          = RestconfDataPath + "/ibn:ibn"
	ibnCatalogPath       = RestconfDataPath + "/ibn-administration:ibn-administration/intent-type-catalog"
	ibnConfigStorePath   = RestconfDataPath + "/nsp-intent-type-config-store:intent-type-config/intent-type-configs"
	ibnSearchOperation   = "ibn:search-intents"
	intentSearchPageSize = 1000
)

// Network states an intent can be requested into
const (
	IntentStateActive    = "active"
	IntentStateSuspended = "suspend"
	IntentStateDeleted   = "delete"
)

// IntentOpts carries optional behavior for intent operations
type IntentOpts struct {
	// desiredState is the required-network-state for the intent
	desiredState string

	// perform is an operation to run after a successful AddIntent
	// ("audit" or "synchronize")
	perform string

	// removeFromNetwork requests network cleanup before intent deletion
	removeFromNetwork bool

	// force deletes an intent type even when intents of that type exist
	force bool
}

// DesiredState returns an intent modifier that sets the required network
// state of the intent (default "active").
func DesiredState(state string) func(*IntentOpts) {
	return func(o *IntentOpts) {
		o.desiredState = state
	}
}

// PerformAudit returns an intent modifier that audits the intent after it
// has been created or updated.
func PerformAudit() func(*IntentOpts) {
	return func(o *IntentOpts) {
		o.perform = "audit"
	}
}

// PerformSynchronize returns an intent modifier that synchronizes the intent
// with the network after it has been created or updated.
func PerformSynchronize() func(*IntentOpts) {
	return func(o *IntentOpts) {
		o.perform = "synchronize"
	}
}

// RemoveFromNetwork returns an intent modifier that removes the intent
// configuration from the network before deleting the intent.
func RemoveFromNetwork() func(*IntentOpts) {
	return func(o *IntentOpts) {
		o.removeFromNetwork = true
	}
}

// Force returns an intent modifier that deletes an intent type even when
// intents of that type still exist (the intents are deleted first).
func Force() func(*IntentOpts) {
	return func(o *IntentOpts) {
		o.force = true
	}
}

func newIntentOpts(mods []func(*IntentOpts)) IntentOpts {
	opts := IntentOpts{desiredState: IntentStateActive}
	for _, mod := range mods {
		mod(&opts)
	}
	return opts
}

// IntentResult describes the outcome of an intent operation
type IntentResult struct {
	// Changed reports whether the operation modified controller state
	Changed bool

	// Msg is a human-readable summary of what happened
	Msg string

	// Res is the response of the last request made
	Res Res
}

// IntentPath builds the RESTCONF path of an intent. The target is
// percent-encoded since targets routinely contain '/' (port identifiers,
// node paths). Spaces encode as %20, not '+', because the target sits in
// path position.
func IntentPath(target, intentType string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(target), "+", "%20")
	return ibnRootPath + "/intent=" + escaped + "," + intentType
}

// IntentTypePath builds the RESTCONF path of an intent type in the catalog.
func IntentTypePath(name string, version int) string {
	return ibnCatalogPath + "/intent-type=" + name + "," + strconv.Itoa(version)
}

// GetIntent retrieves an intent. The second return value reports whether the
// intent exists; a missing intent is not an error.
//
// Example:
//
//	res, found, err := client.GetIntent(ctx, "10.0.0.1", "iplink")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if found {
//	    fmt.Println(res.Get("ibn:intent.required-network-state").String())
//	}
func (c *Client) GetIntent(ctx context.Context, target, intentType string) (Res, bool, error) {
	res, err := c.Get(ctx, IntentPath(target, intentType),
		Accept(MediaTypeYangJSON))
	if err != nil {
		if intentNotFound(res, err) {
			return res, false, nil
		}
		return res, false, err
	}
	return res, true, nil
}

// intentNotFound reports whether a failed intent request means the resource
// does not exist. NSP reports missing intents with 404 or with a RESTCONF
// invalid-value error on 400.
func intentNotFound(res Res, err error) bool {
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == 404 {
		return true
	}
	return IsRestconfNotFound(res.Result)
}

// AddIntent creates an intent or aligns an existing one with the given
// configuration.
//
// The config is the intent-specific data as JSON. When the intent already
// exists, config and desired state are compared against the controller and
// only actual differences are written, making the operation idempotent.
// Config comparison is structural, so JSON member order does not matter.
//
// Example:
//
//	config := nsp.Body{}.Set("iplink:iplink.description", "core link").Str
//	result, err := client.AddIntent(ctx, "10.0.0.1", "iplink", 1, config,
//	    nsp.PerformSynchronize())
func (c *Client) AddIntent(ctx context.Context, target, intentType string, version int, config string, mods ...func(*IntentOpts)) (IntentResult, error) {
	opts := newIntentOpts(mods)
	result := IntentResult{}

	existing, found, err := c.GetIntent(ctx, target, intentType)
	if err != nil {
		return result, err
	}

	if !found {
		body := Body{}.
			Set("ibn:intent.target", target).
			Set("ibn:intent.intent-type", intentType).
			Set("ibn:intent.intent-type-version", version).
			Set("ibn:intent.required-network-state", opts.desiredState).
			SetRaw("ibn:intent.intent-specific-data", config)

		res, err := c.Post(ctx, ibnRootPath, body.Str,
			ContentType(MediaTypeYangJSON),
			Accept(MediaTypeYangJSON))
		if err != nil {
			return IntentResult{Res: res}, err
		}
		result = IntentResult{Changed: true, Msg: "intent created", Res: res}
	} else {
		currentConfig := existing.Get("ibn:intent.intent-specific-data").Raw
		currentState := existing.Get("ibn:intent.required-network-state").String()

		if !configEqual(currentConfig, config) {
			body, err := sjson.SetRaw("", "ibn:intent-specific-data", config)
			if err != nil {
				return result, fmt.Errorf("building intent payload: %w", err)
			}
			res, err := c.Put(ctx, IntentPath(target, intentType)+"/intent-specific-data", body,
				ContentType(MediaTypeYangJSON),
				Accept(MediaTypeYangJSON))
			if err != nil {
				return IntentResult{Res: res}, err
			}
			result = IntentResult{Changed: true, Msg: "intent config updated", Res: res}
		}

		if currentState != opts.desiredState {
			body := Body{}.Set("ibn:intent.required-network-state", opts.desiredState)
			res, err := c.Patch(ctx, IntentPath(target, intentType), body.Str,
				ContentType(MediaTypeYangJSON),
				Accept(MediaTypeYangJSON))
			if err != nil {
				return IntentResult{Res: res}, err
			}
			result.Changed = true
			result.Res = res
			if result.Msg == "" {
				result.Msg = "intent state updated"
			} else {
				result.Msg += ", state updated"
			}
		}

		if !result.Changed {
			result = IntentResult{Msg: "intent up to date", Res: existing}
		}
	}

	switch opts.perform {
	case "audit":
		res, err := c.AuditIntent(ctx, target, intentType)
		if err != nil {
			return IntentResult{Changed: result.Changed, Res: res}, err
		}
		result.Res = res
		result.Msg += ", audit performed"
	case "synchronize":
		res, err := c.SynchronizeIntent(ctx, target, intentType)
		if err != nil {
			return IntentResult{Changed: result.Changed, Res: res}, err
		}
		result.Changed = true
		result.Res = res
		result.Msg += ", synchronized"
	}

	return result, nil
}

// AuditIntent audits an intent against the network and returns the audit
// report.
//
// Misaligned attributes and objects are reported under
// "ibn:output.audit-report" in the response.
func (c *Client) AuditIntent(ctx context.Context, target, intentType string) (Res, error) {
	return c.Post(ctx, IntentPath(target, intentType)+"/audit", `{"ibn:input": {}}`,
		ContentType(MediaTypeYangJSON),
		Accept(MediaTypeYangJSON))
}

// SynchronizeIntent pushes the intent configuration to the network.
func (c *Client) SynchronizeIntent(ctx context.Context, target, intentType string) (Res, error) {
	return c.Post(ctx, IntentPath(target, intentType)+"/synchronize", `{"ibn:input": {}}`,
		ContentType(MediaTypeYangJSON),
		Accept(MediaTypeYangJSON))
}

// DeleteIntent deletes an intent. Deleting an absent intent is not an error
// (Changed is false in that case).
//
// With RemoveFromNetwork the intent is first set to the delete state and
// synchronized so the configuration is removed from the network before the
// intent itself is deleted.
func (c *Client) DeleteIntent(ctx context.Context, target, intentType string, mods ...func(*IntentOpts)) (IntentResult, error) {
	opts := newIntentOpts(mods)

	_, found, err := c.GetIntent(ctx, target, intentType)
	if err != nil {
		return IntentResult{}, err
	}
	if !found {
		return IntentResult{Msg: "intent not found"}, nil
	}

	if opts.removeFromNetwork {
		body := Body{}.Set("ibn:intent.required-network-state", IntentStateDeleted)
		if res, err := c.Patch(ctx, IntentPath(target, intentType), body.Str,
			ContentType(MediaTypeYangJSON),
			Accept(MediaTypeYangJSON)); err != nil {
			return IntentResult{Res: res}, err
		}
		if res, err := c.SynchronizeIntent(ctx, target, intentType); err != nil {
			return IntentResult{Res: res}, err
		}
	}

	res, err := c.Delete(ctx, IntentPath(target, intentType),
		Accept(MediaTypeYangJSON))
	if err != nil {
		return IntentResult{Res: res}, err
	}
	return IntentResult{Changed: true, Msg: "intent deleted", Res: res}, nil
}

// IntentSearchOpts carries optional filters for intent searches
type IntentSearchOpts struct {
	version        int
	configRequired bool
}

// IntentTypeVersion restricts an intent search to one version of the
// intent type
func IntentTypeVersion(version int) func(*IntentSearchOpts) {
	return func(opts *IntentSearchOpts) {
		opts.version = version
	}
}

// ConfigRequired restricts an intent search to intents carrying
// configuration
func ConfigRequired() func(*IntentSearchOpts) {
	return func(opts *IntentSearchOpts) {
		opts.configRequired = true
	}
}

// SearchIntents searches intents of the given intent type. Pass an empty
// intentType to list all intents. Results are returned as gjson results of
// the individual intent objects.
func (c *Client) SearchIntents(ctx context.Context, intentType string, mods ...func(*IntentSearchOpts)) ([]gjson.Result, error) {
	opts := IntentSearchOpts{}
	for _, mod := range mods {
		mod(&opts)
	}

	input := Body{}.
		Set("page-number", 0).
		Set("page-size", intentSearchPageSize)
	if intentType != "" {
		input = input.Set("filter.intent-type-list.-1.intent-type", intentType)
		if opts.version != 0 {
			input = input.Set("filter.intent-type-list.0.intent-type-version", opts.version)
		}
	}
	if opts.configRequired {
		input = input.Set("filter.config-required", true)
	}

	res, err := c.Rpc(ctx, ibnSearchOperation, input.Str,
		ContentType(MediaTypeYangJSON),
		Accept(MediaTypeYangJSON))
	if err != nil {
		return nil, err
	}
	return res.Get("ibn:output.intents.intent").Array(), nil
}

// DeleteIntentType removes an intent type from the catalog. Deleting an
// absent intent type is not an error.
//
// When intents of the type still exist the operation fails unless Force is
// given, in which case the intents are deleted first.
func (c *Client) DeleteIntentType(ctx context.Context, name string, version int, mods ...func(*IntentOpts)) (IntentResult, error) {
	opts := newIntentOpts(mods)

	intents, err := c.SearchIntents(ctx, name, IntentTypeVersion(version), ConfigRequired())
	if err != nil {
		return IntentResult{}, err
	}
	if len(intents) > 0 {
		if !opts.force {
			return IntentResult{}, fmt.Errorf("intent type %s has %d intents, delete them first or use Force()", name, len(intents))
		}
		for _, intent := range intents {
			target := intent.Get("target").String()
			if _, err := c.DeleteIntent(ctx, target, name); err != nil {
				return IntentResult{}, fmt.Errorf("deleting intent %s: %w", target, err)
			}
		}
	}

	res, err := c.Delete(ctx, IntentTypePath(name, version),
		Accept(MediaTypeYangJSON))
	if err != nil {
		return IntentResult{Res: res}, err
	}
	if res.StatusCode == 404 {
		return IntentResult{Msg: "intent type not found", Res: res}, nil
	}
	return IntentResult{Changed: true, Msg: "intent type deleted", Res: res}, nil
}

// UploadIntentType reads an intent type from a local directory and creates or
// replaces it in the catalog.
//
// The directory layout follows the Intent Manager export format:
//
//	meta-info.json              intent type metadata
//	script-content.js|.mjs      intent logic
//	yang-modules/               YANG models
//	intent-type-resources/      additional resources (any nesting)
//	views/*.viewConfig          UI form definitions (optional)
//	intents/*.json              intents to create with the type (optional)
//
// The intent type name and version are taken from meta-info.json unless the
// directory name follows the "<name>-v<version>" convention, which takes
// precedence.
func (c *Client) UploadIntentType(ctx context.Context, dir string, mods ...func(*IntentOpts)) (IntentResult, error) {
	payload, name, version, err := buildIntentTypePayload(dir)
	if err != nil {
		return IntentResult{}, err
	}

	body, err := sjson.SetRaw("", "ibn-administration:intent-type", payload)
	if err != nil {
		return IntentResult{}, fmt.Errorf("building intent type payload: %w", err)
	}

	existing, err := c.Get(ctx, IntentTypePath(name, version),
		Accept(MediaTypeYangJSON))
	exists := err == nil
	if err != nil && !intentNotFound(existing, err) {
		return IntentResult{Res: existing}, err
	}

	var res Res
	if exists {
		res, err = c.Put(ctx, IntentTypePath(name, version), body,
			ContentType(MediaTypeYangJSON),
			Accept(MediaTypeYangJSON))
	} else {
		res, err = c.Post(ctx, ibnCatalogPath, body,
			ContentType(MediaTypeYangJSON),
			Accept(MediaTypeYangJSON))
	}
	if err != nil {
		return IntentResult{Res: res}, err
	}

	if err := c.uploadIntentTypeViews(ctx, dir, name, version); err != nil {
		return IntentResult{Changed: true, Res: res}, err
	}
	if err := c.uploadBundledIntents(ctx, dir, name, version); err != nil {
		return IntentResult{Changed: true, Res: res}, err
	}

	msg := "intent type created"
	if exists {
		msg = "intent type replaced"
	}
	c.logger.Info(ctx, msg,
		"name", name,
		"version", version)

	return IntentResult{Changed: true, Msg: msg, Res: res}, nil
}

// uploadIntentTypeViews uploads view configurations from the views/
// subdirectory to the intent type config store.
func (c *Client) uploadIntentTypeViews(ctx context.Context, dir, name string, version int) error {
	viewsDir := filepath.Join(dir, "views")
	entries, err := os.ReadDir(viewsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading views: %w", err)
	}

	views := Body{}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".viewConfig") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(viewsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading view %s: %w", entry.Name(), err)
		}
		viewName := strings.TrimSuffix(entry.Name(), ".viewConfig")
		prefix := fmt.Sprintf("nsp-intent-type-config-store:intent-type-configs.0.views.%d", count)
		views = views.
			Set(prefix+".name", viewName).
			Set(prefix+".viewconfig", string(content))
		count++
	}
	if count == 0 {
		return nil
	}

	views = views.
		Set("nsp-intent-type-config-store:intent-type-configs.0.intent-type", name).
		Set("nsp-intent-type-config-store:intent-type-configs.0.version", version)

	path := ibnConfigStorePath + "=" + name + "," + strconv.Itoa(version)
	_, err = c.Patch(ctx, path, views.Str,
		ContentType(MediaTypeYangJSON),
		Accept(MediaTypeYangJSON))
	if err != nil {
		return fmt.Errorf("uploading views: %w", err)
	}
	return nil
}

// uploadBundledIntents creates the intents shipped in the intents/
// subdirectory. Each file name is the URL-encoded intent target and the
// content is the intent-specific data.
func (c *Client) uploadBundledIntents(ctx context.Context, dir, name string, version int) error {
	intentsDir := filepath.Join(dir, "intents")
	entries, err := os.ReadDir(intentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading intents: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		target, err := url.QueryUnescape(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return fmt.Errorf("decoding intent target from %s: %w", entry.Name(), err)
		}
		config, err := os.ReadFile(filepath.Join(intentsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading intent %s: %w", entry.Name(), err)
		}

		body := Body{}.
			Set("ibn:intent.target", target).
			Set("ibn:intent.intent-type", name).
			Set("ibn:intent.intent-type-version", version).
			Set("ibn:intent.required-network-state", IntentStateActive).
			SetRaw("ibn:intent.intent-specific-data", string(config))

		_, err = c.Post(ctx, ibnRootPath, body.Str,
			ContentType(MediaTypeYangJSON),
			Accept(MediaTypeYangJSON))
		if err == nil {
			continue
		}

		// Intent may already exist from a previous upload, replace its config
		putBody, perr := sjson.SetRaw("", "ibn:intent-specific-data", string(config))
		if perr != nil {
			return fmt.Errorf("building intent payload: %w", perr)
		}
		if _, perr := c.Put(ctx, IntentPath(target, name)+"/intent-specific-data", putBody,
			ContentType(MediaTypeYangJSON),
			Accept(MediaTypeYangJSON)); perr != nil {
			return fmt.Errorf("creating intent %s: %w", target, err)
		}
	}
	return nil
}

// intentTypeDirSuffix separates name and version in the "<name>-v<version>"
// directory convention
const intentTypeDirSuffix = "-v"

// buildIntentTypePayload assembles the catalog payload for an intent type
// from its directory. Returns the payload JSON, name and version.
func buildIntentTypePayload(dir string) (string, string, int, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, "meta-info.json"))
	if err != nil {
		return "", "", 0, fmt.Errorf("reading meta-info.json: %w", err)
	}

	var meta map[string]any
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return "", "", 0, fmt.Errorf("parsing meta-info.json: %w", err)
	}

	name, version := intentTypeFromDir(dir)
	normalizeMetaInfo(meta, name, version)

	name, _ = meta["name"].(string)
	if name == "" {
		return "", "", 0, fmt.Errorf("intent type name missing in meta-info.json and directory name")
	}
	if v, ok := meta["version"].(int); ok {
		version = v
	}
	if version == 0 {
		version = 1
		meta["version"] = 1
	}

	script, err := readScriptContent(dir)
	if err != nil {
		return "", "", 0, err
	}
	meta["script-content"] = script

	modules, err := readYangModules(dir)
	if err != nil {
		return "", "", 0, err
	}
	meta["module"] = modules

	resources, err := readIntentTypeResources(dir)
	if err != nil {
		return "", "", 0, err
	}
	if len(resources) > 0 {
		meta["resource"] = resources
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return "", "", 0, fmt.Errorf("marshaling intent type payload: %w", err)
	}
	return string(payload), name, version, nil
}

// intentTypeFromDir derives name and version from a "<name>-v<version>"
// directory name. Returns "" and 0 when the convention is not followed.
func intentTypeFromDir(dir string) (string, int) {
	base := filepath.Base(filepath.Clean(dir))
	idx := strings.LastIndex(base, intentTypeDirSuffix)
	if idx <= 0 {
		return "", 0
	}
	version, err := strconv.Atoi(base[idx+len(intentTypeDirSuffix):])
	if err != nil {
		return "", 0
	}
	return base[:idx], version
}

// normalizeMetaInfo converts an exported meta-info.json into the form the
// catalog API accepts.
//
// Exports differ from the API payload in several ways: the name is stored
// under "intent-type", the version may be a JSON number, custom fields may be
// structured, and some export-only members must not be sent back.
func normalizeMetaInfo(meta map[string]any, name string, version int) {
	// Export-only members rejected by the catalog API
	delete(meta, "resourceDirectory")
	delete(meta, "resource-directory")
	delete(meta, "supported-hardware-types")

	if v, ok := meta["intent-type"]; ok {
		meta["name"] = v
		delete(meta, "intent-type")
	}
	if name != "" {
		meta["name"] = name
	}

	if v, ok := meta["version"].(float64); ok {
		meta["version"] = int(v)
	}
	if version != 0 {
		meta["version"] = version
	}

	// Structured custom fields are transported as a JSON string
	if v, ok := meta["custom-field"]; ok {
		if _, isString := v.(string); !isString {
			if encoded, err := json.Marshal(v); err == nil {
				meta["custom-field"] = string(encoded)
			}
		}
	}

	// List indexes are mandatory for targetted-device entries but often
	// missing in exports
	if devices, ok := meta["targetted-device"].([]any); ok {
		for i, item := range devices {
			if device, ok := item.(map[string]any); ok {
				if _, hasIndex := device["index"]; !hasIndex {
					device["index"] = i
				}
			}
		}
	}
}

// readScriptContent reads the intent logic from script-content.js or
// script-content.mjs.
func readScriptContent(dir string) (string, error) {
	for _, candidate := range []string{"script-content.js", "script-content.mjs"} {
		content, err := os.ReadFile(filepath.Join(dir, candidate))
		if err == nil {
			return string(content), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("reading %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no script-content.js or script-content.mjs in %s", dir)
}

// readYangModules reads the YANG models from yang-modules/.
func readYangModules(dir string) ([]map[string]any, error) {
	modulesDir := filepath.Join(dir, "yang-modules")
	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		return nil, fmt.Errorf("reading yang-modules: %w", err)
	}

	var modules []map[string]any
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(modulesDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading module %s: %w", entry.Name(), err)
		}
		modules = append(modules, map[string]any{
			"name":         entry.Name(),
			"yang-content": string(content),
		})
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("no YANG modules in %s", modulesDir)
	}
	return modules, nil
}

// readIntentTypeResources reads all files below intent-type-resources/,
// keeping their relative paths as resource names.
func readIntentTypeResources(dir string) ([]map[string]any, error) {
	resourcesDir := filepath.Join(dir, "intent-type-resources")
	if _, err := os.Stat(resourcesDir); os.IsNotExist(err) {
		return nil, nil
	}

	var resources []map[string]any
	err := filepath.WalkDir(resourcesDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading resource %s: %w", path, err)
		}
		rel, err := filepath.Rel(resourcesDir, path)
		if err != nil {
			return err
		}
		resources = append(resources, map[string]any{
			"name":  filepath.ToSlash(rel),
			"value": string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deterministic payload ordering
	sort.Slice(resources, func(i, j int) bool {
		return resources[i]["name"].(string) < resources[j]["name"].(string)
	})
	return resources, nil
}

// configEqual reports whether two JSON configurations are structurally equal.
//
// Object member order is irrelevant, array order is significant. Invalid
// JSON on either side compares by raw string equality.
func configEqual(a, b string) bool {
	var objA, objB any
	if err := json.Unmarshal([]byte(a), &objA); err != nil {
		return a == b
	}
	if err := json.Unmarshal([]byte(b), &objB); err != nil {
		return a == b
	}
	return reflect.DeepEqual(objA, objB)
}
