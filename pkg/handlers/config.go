package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"

	"github.com/blogic/udrone/pkg/errno"
	"github.com/blogic/udrone/pkg/registry"
	"github.com/blogic/udrone/pkg/wire"
)

// Store is the TOML-backed configuration file cfg_get/cfg_set operate on,
// replacing the original's UCI package store. Unlike UCI's config/section/
// option triple, sections here are addressed as a flat "section.key" path,
// per the REDESIGN FLAG that applies and persists every write immediately
// instead of queuing an unexecuted tmpfile script.
type Store struct {
	mu      sync.Mutex
	path    string
	tree    *toml.Tree
	log     logrus.FieldLogger
	watcher *fsnotify.Watcher
}

// OpenStore loads path (creating an empty tree if it doesn't exist yet) and
// starts an fsnotify watch so external edits to the file are picked up on
// the next read.
func OpenStore(path string, log logrus.FieldLogger) (*Store, error) {
	tree, err := loadTree(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, fmt.Errorf("handlers: create config file: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("handlers: create config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("handlers: watch config file: %w", err)
	}

	s := &Store{path: path, tree: tree, log: log, watcher: watcher}
	go s.watchLoop()
	return s, nil
}

func loadTree(path string) (*toml.Tree, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return toml.TreeFromMap(map[string]interface{}{})
	}
	if err != nil {
		return nil, fmt.Errorf("handlers: read config file: %w", err)
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("handlers: parse config file: %w", err)
	}
	return tree, nil
}

func (s *Store) watchLoop() {
	for event := range s.watcher.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			continue
		}
		s.mu.Lock()
		tree, err := loadTree(s.path)
		if err != nil {
			s.log.WithError(err).Warn("failed to reload config after external change")
		} else {
			s.tree = tree
		}
		s.mu.Unlock()
	}
}

// Close stops the file watcher.
func (s *Store) Close() error {
	return s.watcher.Close()
}

// Get returns section.key, if present.
func (s *Store) Get(section, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.tree.GetPath(strings.Split(section+"."+key, "."))
	if v == nil {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Section returns every key in section, in the order go-toml reports them.
func (s *Store) Section(section string) (*wire.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.tree.GetPath(strings.Split(section, ".")).(*toml.Tree)
	if !ok {
		return nil, false
	}
	out := wire.NewTable()
	for _, k := range sub.Keys() {
		if v, ok := sub.Get(k).(string); ok {
			out.Set(k, v)
		}
	}
	return out, true
}

// Set applies section.key = value immediately in memory and persists the
// whole tree to disk before returning, so a crash after Set never leaves a
// pending-but-unapplied change behind.
func (s *Store) Set(section, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.SetPath(strings.Split(section+"."+key, "."), value)
	data, err := s.tree.Marshal()
	if err != nil {
		return fmt.Errorf("handlers: marshal config: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// CfgGet returns the handler for the cfg_get command: "section" selects one
// section's key/value table; an absent "section" argument is -EINVAL and an
// unknown section is -ENOENT.
func CfgGet(store *Store) registry.Descriptor {
	return registry.Descriptor{
		Type:      "cfg_get",
		Atomicity: registry.Atomic,
		Handler: func(_ context.Context, args *wire.Table, out *wire.Table) int {
			section, ok := args.GetString("section")
			if !ok {
				return -errno.EINVAL
			}
			sub, ok := store.Section(section)
			if !ok {
				return -errno.ENOENT
			}
			out.Set(section, sub)
			return wire.DataReply
		},
	}
}

// CfgSet returns the handler for the cfg_set command. args is a table of
// section names, each mapping to a table of key/value string pairs; every
// tuple is applied and persisted before the handler returns.
func CfgSet(store *Store) registry.Descriptor {
	return registry.Descriptor{
		Type:      "cfg_set",
		Atomicity: registry.Atomic,
		Handler: func(_ context.Context, args *wire.Table, _ *wire.Table) int {
			if args.Len() == 0 {
				return -errno.EINVAL
			}
			for _, section := range args.Keys() {
				sub, ok := args.GetTable(section)
				if !ok {
					return -errno.EINVAL
				}
				for _, key := range sub.Keys() {
					value, ok := sub.GetString(key)
					if !ok {
						return -errno.EINVAL
					}
					if err := store.Set(section, key, value); err != nil {
						return -errno.EIO
					}
				}
			}
			return 0
		},
	}
}
