// Package plugins carga constructores de modelos y sizers desde shared objects
// compilados con -buildmode=plugin. Las referencias tienen la forma
// "ruta/al/archivo.so:Simbolo".
package plugins

import (
	"fmt"
	"plugin"
	"strings"
)

// IsRef devuelve true si name apunta a un plugin en vez de a un builtin.
func IsRef(name string) bool {
	path, sym, ok := split(name)
	return ok && strings.HasSuffix(path, ".so") && sym != ""
}

// Lookup abre el plugin y devuelve el símbolo referenciado.
func Lookup(ref string) (plugin.Symbol, error) {
	path, sym, ok := split(ref)
	if !ok {
		return nil, fmt.Errorf("plugins.Lookup: %q: want path.so:Symbol", ref)
	}
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plugins.Lookup: open %q: %w", path, err)
	}
	s, err := p.Lookup(sym)
	if err != nil {
		return nil, fmt.Errorf("plugins.Lookup: %q: %w", ref, err)
	}
	return s, nil
}

func split(ref string) (path, sym string, ok bool) {
	i := strings.LastIndex(ref, ":")
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}
