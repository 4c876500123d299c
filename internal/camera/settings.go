package camera

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"
)

// CommonSetting names a frequently used photographic setting and the
// config names different camera drivers use for it.
type CommonSetting struct {
	Name    string
	Aliases []string
}

var CommonSettingsTable = []CommonSetting{
	{Name: "iso", Aliases: []string{"iso", "isospeed", "sensitivity"}},
	{Name: "shutter_speed", Aliases: []string{"shutterspeed", "shutter", "speed"}},
	{Name: "aperture", Aliases: []string{"aperture", "fnumber", "f-number"}},
	{Name: "white_balance", Aliases: []string{"whitebalance", "wb"}},
	{Name: "image_quality", Aliases: []string{"imagequality", "quality"}},
	{Name: "focus_mode", Aliases: []string{"focusmode", "autofocus", "af"}},
}

// normalizeKey turns a dotted key "a.b" into "/main/a/b". Plain names and
// full paths are passed through.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "/") || !strings.Contains(key, ".") {
		return key
	}
	return "/main/" + strings.ReplaceAll(key, ".", "/")
}

// ConfigKeys lists every configuration path the camera exposes.
func (c *Controller) ConfigKeys(ctx context.Context) ([]string, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}
	out, err := c.gphoto(ctx, "--list-config")
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	keys := parseListConfig(out)
	c.log.Debug("config keys", zap.Int("count", len(keys)))
	return keys, nil
}

// GetConfig reads one configuration entry.
func (c *Controller) GetConfig(ctx context.Context, key string) (ConfigEntry, error) {
	if !c.connected {
		return ConfigEntry{}, ErrNotConnected
	}
	k := normalizeKey(key)
	out, err := c.gphoto(ctx, "--get-config", k)
	if err != nil {
		return ConfigEntry{}, fmt.Errorf("get config %s: %w", key, err)
	}
	return parseGetConfig(key, out), nil
}

// SetConfig sets one configuration entry by value. Read-only entries are
// refused without touching the camera.
func (c *Controller) SetConfig(ctx context.Context, key, value string) error {
	entry, err := c.GetConfig(ctx, key)
	if err != nil {
		return err
	}
	if entry.Readonly {
		return fmt.Errorf("set config %s: %w", key, ErrReadOnly)
	}
	if len(entry.Choices) > 0 && !entry.HasChoice(value) {
		c.log.Warn("value is not one of the listed choices", zap.String("key", key), zap.String("value", value))
	}
	if _, err := c.gphoto(ctx, "--set-config-value", normalizeKey(key)+"="+value); err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	c.log.Info("config changed", zap.String("key", key), zap.String("from", entry.Current), zap.String("to", value))
	return nil
}

// resolveCommon maps each common setting name to the first config path
// whose last element matches one of its aliases.
func resolveCommon(keys []string) map[string]string {
	byName := make(map[string]string, len(keys))
	for _, k := range keys {
		name := strings.ToLower(path.Base(k))
		if _, ok := byName[name]; !ok {
			byName[name] = k
		}
	}
	out := make(map[string]string)
	for _, s := range CommonSettingsTable {
		for _, a := range s.Aliases {
			if k, ok := byName[a]; ok {
				out[s.Name] = k
				break
			}
		}
	}
	return out
}

// CommonSettings reads the settings in CommonSettingsTable. Settings the
// camera does not have map to nil.
func (c *Controller) CommonSettings(ctx context.Context) (map[string]*ConfigEntry, error) {
	keys, err := c.ConfigKeys(ctx)
	if err != nil {
		return nil, err
	}
	resolved := resolveCommon(keys)
	out := make(map[string]*ConfigEntry, len(CommonSettingsTable))
	for _, s := range CommonSettingsTable {
		k, ok := resolved[s.Name]
		if !ok {
			out[s.Name] = nil
			continue
		}
		entry, err := c.GetConfig(ctx, k)
		if err != nil {
			return nil, err
		}
		out[s.Name] = &entry
	}
	return out, nil
}

// SetCommonSettings applies values keyed by common setting name and
// returns the per-setting result. A nil entry means it was applied.
func (c *Controller) SetCommonSettings(ctx context.Context, values map[string]string) (map[string]error, error) {
	keys, err := c.ConfigKeys(ctx)
	if err != nil {
		return nil, err
	}
	resolved := resolveCommon(keys)
	results := make(map[string]error, len(values))
	for name, v := range values {
		k, ok := resolved[name]
		if !ok {
			results[name] = fmt.Errorf("%s: %w", name, ErrConfigNotFound)
			continue
		}
		results[name] = c.SetConfig(ctx, k, v)
	}
	return results, nil
}
