package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mythicvoid/novel-engine/pkg/inventory"
	"github.com/mythicvoid/novel-engine/pkg/script"
)

// Validates story content files before they ship: strict JSON shape,
// id formats, dangling scene references, oversized choice lists. With
// -items the arguments are item catalogs instead of scripts.

func main() {
	itemsMode := flag.Bool("items", false, "validate item catalog files instead of scripts")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-items] <file.json> [more files...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range flag.Args() {
		var err error
		if *itemsMode {
			err = validateCatalogFile(filename)
		} else {
			v := &ScriptValidator{}
			err = v.validateFile(filename)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

func validateCatalogFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var defs map[string]inventory.ItemDefinition
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&defs); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	var errs []string
	for id, def := range defs {
		if !idFormat.MatchString(id) {
			errs = append(errs, fmt.Sprintf("item id %q must be lowercase snake_case", id))
		}
		if def.MaxStackSize < 0 {
			errs = append(errs, fmt.Sprintf("item %q has negative maxStackSize", id))
		}
		if def.Stackable != nil && !*def.Stackable && def.MaxStackSize > 1 {
			errs = append(errs, fmt.Sprintf("item %q is non-stackable but sets maxStackSize %d", id, def.MaxStackSize))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(errs, "\n"))
	}
	return nil
}

type ScriptValidator struct {
	errors []string
}

var idFormat = regexp.MustCompile(`^[a-z0-9_]+$`)

func (v *ScriptValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("script file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !idFormat.MatchString(nameWithoutExt) {
		return fmt.Errorf("script filename '%s' must be lowercase snake_case (e.g., my_script.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var gs script.GameScript
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&gs); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	// The parser applies the same required-key checks players hit at
	// runtime; run it so validation matches reality.
	if _, err := script.Load(filename); err != nil {
		return err
	}

	v.errors = nil
	v.validateScript(&gs, nameWithoutExt)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ScriptValidator) validateScript(gs *script.GameScript, fileID string) {
	if gs.ScriptID != fileID {
		v.errorf("scriptId %q should match the file basename %q for save resume to work", gs.ScriptID, fileID)
	}

	sceneIDs := make(map[string]bool, len(gs.Scenes))
	for _, sc := range gs.Scenes {
		if sceneIDs[sc.ID] {
			v.errorf("duplicate scene id %q", sc.ID)
		}
		sceneIDs[sc.ID] = true
		if !idFormat.MatchString(sc.ID) {
			v.errorf("scene id %q must be lowercase snake_case", sc.ID)
		}
	}

	for _, sc := range gs.Scenes {
		alwaysVisible := 0
		for ci, c := range sc.Choices {
			if c.Condition == nil {
				alwaysVisible++
			}
			if c.NextScript != "" {
				continue // cross-script targets resolve at play time
			}
			if c.NextScene == "" {
				v.errorf("scene %q choice %d has neither nextScene nor nextScript", sc.ID, ci)
				continue
			}
			if c.NextScene != script.EndSceneID && !sceneIDs[c.NextScene] {
				v.errorf("scene %q choice %d targets unknown scene %q", sc.ID, ci, c.NextScene)
			}
		}
		if alwaysVisible > 4 {
			v.errorf("scene %q has %d always-visible choices; only 4 can be shown", sc.ID, alwaysVisible)
		}

		if sc.Effects != nil {
			// Omitted quantity defaults to 1 at load time; only negative
			// values are author errors.
			for _, st := range sc.Effects.AddItems {
				if st.Quantity < 0 {
					v.errorf("scene %q addItems entry %q has negative quantity", sc.ID, st.ID)
				}
			}
		}
	}
}

func (v *ScriptValidator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}
