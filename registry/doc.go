/*
Package registry provides the process-wide lookup tables used by modelstore.

Type Registry:
TypeRegistry maps a case-insensitive type name to a factory. Both the attribute
converter types and the proxy types are kept in one:

	proxies := registry.NewTypeRegistry[proxy.Factory]("proxy")
	proxies.MustRegister("memory", memory.Factory)

	factory, err := proxies.Lookup("Memory") // same entry

Registries start empty and are append-only. Registering a name twice returns a
duplicate-type error; looking up an unknown name returns an unknown-type error.
Both match errors.ErrConfiguration.

Index Map Registry:
Associates model names with key templates used by key/value backends such as DynamoDB:

	registry.RegisterIndexMap("user", map[string]string{
	    "PK":     "USER#{id}",
	    "SK":     "USER#{id}",
	    "GSI1PK": "EMAIL#{email}",
	    "GSI1SK": "USER",
	})

The registries are safe for concurrent use and are usually populated during
initialization, in init() functions or while building model classes.
*/
package registry
