// Package synthcache implements an at-most-once synthesis cache for runtime
// generated code units (specialized accessors, key objects, dispatch routers).
// Each distinct (scope, key) pair is synthesized at most once; repeated
// requests return the cached instance until its owning scope goes away.
//
// Components:
//   - Scope: isolation boundary owning synthesized units. Cache entries live
//     exactly as long as their scope; there is no TTL or LRU eviction.
//   - Cache[V]: generic obtain-or-synthesize front end. Synthesis for a scope
//     is serialized by locking the scope handle; scopes never block each other.
//   - Task: explicit context threaded through a synthesis call. Carries the
//     reserved unit name and the install/dump surfaces.
//
// Naming:
//
//	<origin>_<tag>_<hash12>      - deterministic base name per key
//	<base>_0, <base>_1, ...      - collision suffixes, starting at 0
//
// The chosen name is reserved before the unit body is constructed, so two
// differently-shaped concurrent requests can never race into one name.
//
// Obtain pattern:
//
//	c, _ := synthcache.New[Router](synthcache.Options[Router]{Origin: "router"})
//	r, err := c.Obtain(scope, synthcache.Key{Shape: sig}, func(t *synthcache.Task) (*Router, error) {
//	    u := buildUnit(t.Name())       // construct under the reserved name
//	    if err := t.Install(u); err != nil { return nil, err }
//	    return newRouter(u), nil
//	})
package synthcache
