// Package permission models the coarse capabilities a plugin may be granted.
package permission

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is an immutable bit-set of capabilities.
type Set uint32

const (
	ReadTasks Set = 1 << iota
	WriteTasks
	ReadReminders
	WriteReminders
	ReadDataBank
	WriteDataBank
	ReadDataAssets
	WriteDataAssets
	ReadChat
	WriteChat
	FileSystem
	Network
	UI
	Notifications

	None Set = 0
	All       = ReadTasks | WriteTasks | ReadReminders | WriteReminders |
		ReadDataBank | WriteDataBank | ReadDataAssets | WriteDataAssets |
		ReadChat | WriteChat | FileSystem | Network | UI | Notifications
)

var names = map[Set]string{
	ReadTasks:       "read_tasks",
	WriteTasks:      "write_tasks",
	ReadReminders:   "read_reminders",
	WriteReminders:  "write_reminders",
	ReadDataBank:    "read_databank",
	WriteDataBank:   "write_databank",
	ReadDataAssets:  "read_dataassets",
	WriteDataAssets: "write_dataassets",
	ReadChat:        "read_chat",
	WriteChat:       "write_chat",
	FileSystem:      "filesystem",
	Network:         "network",
	UI:              "ui",
	Notifications:   "notifications",
}

var byName = func() map[string]Set {
	m := make(map[string]Set, len(names)+1)
	for bit, name := range names {
		m[name] = bit
	}
	m["all"] = All
	return m
}()

// Union returns every capability present in either set.
func (s Set) Union(other Set) Set { return s | other }

// Intersect returns the capabilities present in both sets.
func (s Set) Intersect(other Set) Set { return s & other }

// Contains reports whether s is a superset of required.
func (s Set) Contains(required Set) bool { return s&required == required }

// Missing returns the capabilities of required absent from s.
func (s Set) Missing(required Set) Set { return required &^ s }

// Has reports whether every bit of p is set. It is an alias of Contains that reads
// better with a single capability.
func (s Set) Has(p Set) bool { return s.Contains(p) }

// IsEmpty reports whether the set grants nothing.
func (s Set) IsEmpty() bool { return s&All == 0 }

// Len returns the number of capabilities in the set.
func (s Set) Len() int { return bits.OnesCount32(uint32(s & All)) }

// Names lists capability names in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, s.Len())
	for bit, name := range names {
		if s&bit != 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (s Set) String() string {
	switch {
	case s.IsEmpty():
		return "none"
	case s&All == All:
		return "all"
	}
	return strings.Join(s.Names(), ",")
}

// Parse resolves a single capability name. "all" expands to every capability.
func Parse(name string) (Set, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	if bit, ok := byName[key]; ok {
		return bit, nil
	}
	return None, fmt.Errorf("unknown permission %q", name)
}

// ParseSet resolves a list of names into one set.
func ParseSet(list []string) (Set, error) {
	var out Set
	for _, name := range list {
		if strings.TrimSpace(name) == "" {
			continue
		}
		bit, err := Parse(name)
		if err != nil {
			return None, err
		}
		out |= bit
	}
	return out, nil
}

// KnownNames lists every capability name accepted by Parse, excluding "all".
func KnownNames() []string {
	return All.Names()
}

// MarshalJSON encodes the set as a sorted list of names.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON accepts a list of names.
func (s *Set) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("permission set must be a list of names: %w", err)
	}
	parsed, err := ParseSet(list)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes the set as a sorted list of names.
func (s Set) MarshalYAML() (any, error) {
	return s.Names(), nil
}

// UnmarshalYAML accepts a list of names.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	var list []string
	if err := node.Decode(&list); err != nil {
		return fmt.Errorf("permission set must be a list of names: %w", err)
	}
	parsed, err := ParseSet(list)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
