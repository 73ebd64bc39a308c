package transport

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// resolveURL joins base and path with exactly one slash and appends query.
// A path that is already an absolute URL is used as is.
func resolveURL(base, path string, query map[string]any) (string, error) {
	target := path
	if !strings.Contains(path, "://") {
		target = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid request url %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid request url %q: base url must be absolute", target)
	}

	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			for _, s := range queryValues(v) {
				q.Add(k, s)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// queryValues flattens v into its string forms. nil and nil pointers give
// nothing; slices and arrays give one value per element.
func queryValues(v any) []string {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, queryValues(rv.Index(i).Interface())...)
		}
		return out
	}

	switch t := rv.Interface().(type) {
	case time.Time:
		return []string{t.UTC().Format(time.RFC3339)}
	case fmt.Stringer:
		return []string{t.String()}
	default:
		return []string{fmt.Sprint(t)}
	}
}
