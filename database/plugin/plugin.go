// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin

import "fmt"

// Plugin is a storage backend that can be started and stopped
type Plugin interface {
	Start() error
	Stop() error
}

// ErrorPlugin carries a construction error until Start is called
type ErrorPlugin struct {
	Err error
}

func (e *ErrorPlugin) Start() error { return e.Err }

func (e *ErrorPlugin) Stop() error { return nil }

func NewErrorPlugin(err error) Plugin {
	return &ErrorPlugin{Err: err}
}

// StartPlugin instantiates the named plugin from its current options and
// starts it
func StartPlugin(pluginType PluginType, pluginName string) (Plugin, error) {
	kind := PluginTypeName(pluginType)
	p := GetPlugin(pluginType, pluginName)
	if p == nil {
		return nil, fmt.Errorf("%s plugin '%s' not found", kind, pluginName)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf("start %s plugin '%s': %w", kind, pluginName, err)
	}
	return p, nil
}

// StartAs starts the named plugin and checks that it implements T
func StartAs[T any](pluginType PluginType, pluginName string) (T, error) {
	var zero T
	p, err := StartPlugin(pluginType, pluginName)
	if err != nil {
		return zero, err
	}
	ret, ok := p.(T)
	if !ok {
		_ = p.Stop()
		return zero, fmt.Errorf(
			"%s plugin '%s' does not implement %T",
			PluginTypeName(pluginType),
			pluginName,
			(*T)(nil),
		)
	}
	return ret, nil
}

// SetPluginOption overrides one option of a registered plugin before it is
// instantiated. Options the plugin does not define are ignored.
// Writes are unsynchronized and must happen before GetPlugin.
func SetPluginOption(
	pluginType PluginType,
	pluginName string,
	optionName string,
	value any,
) error {
	for _, p := range pluginEntries {
		if p.Type != pluginType || p.Name != pluginName {
			continue
		}
		for _, opt := range p.Options {
			if opt.Name == optionName {
				return setOption(opt, value)
			}
		}
		return nil
	}
	return fmt.Errorf(
		"plugin %s of type %s not found",
		pluginName,
		PluginTypeName(pluginType),
	)
}

func setOption(opt PluginOption, value any) error {
	if opt.Dest == nil {
		return fmt.Errorf("option %s: nil destination", opt.Name)
	}
	switch opt.Type {
	case PluginOptionTypeString:
		return assign[string](opt, value)
	case PluginOptionTypeBool:
		return assign[bool](opt, value)
	case PluginOptionTypeInt:
		return assign[int](opt, value)
	case PluginOptionTypeUint:
		// YAML decodes small numbers as int
		if v, ok := value.(int); ok {
			if v < 0 {
				return fmt.Errorf("option %s: negative value %d", opt.Name, v)
			}
			value = uint64(v)
		}
		return assign[uint64](opt, value)
	}
	return fmt.Errorf("option %s: unknown option type %d", opt.Name, opt.Type)
}

func assign[T any](opt PluginOption, value any) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf("option %s: cannot use %T as %T", opt.Name, value, v)
	}
	dest, ok := opt.Dest.(*T)
	if !ok || dest == nil {
		return fmt.Errorf("option %s: destination is %T, not *%T", opt.Name, opt.Dest, v)
	}
	*dest = v
	return nil
}
