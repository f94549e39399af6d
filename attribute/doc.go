/*
Package attribute implements typed model attributes and their conversion rules.

An Attribute is built once per model class from a Config and shared by all its
instances. The Type names a converter registered in a Registry:

	attr, err := attribute.Create(attribute.Config{
	    Name:    "price",
	    Type:    "float",
	    UseNull: true,
	})
	attr.Convert("$1,000.32%") // 1000.32
	attr.Convert("n/a")        // nil, because UseNull is set

Built-in types:

	string            nil -> "" (or nil), anything else -> its string form
	int, integer      leading integer of the (stripped) input, unparsable -> 0 (or nil)
	float, number     leading float of the (stripped) input, unparsable -> 0 (or nil)
	boolean           "true" -> true, other strings -> false, numbers by non-zero
	date              time values pass, strings and millisecond timestamps are parsed, else nil
	object            maps, slices, structs and pointers pass, else nil
	mixed             no conversion
	model             nil or an instance of the nested model type
	collection        nil or an instance of the nested collection type

Conversion never fails. Configuration mistakes (missing name, unknown type,
duplicate registration, nested type that cannot be resolved) are reported as
errors matching errors.ErrConfiguration.

Setting a value is two-phase. BeforeSet runs the custom Set hook and the
conversion and returns the value to store; AfterSet runs once the owner stored it,
which is where nested values are attached to and detached from their parent.

Custom types register themselves, usually from an init function:

	func init() {
	    attribute.DefaultRegistry.MustRegister("uuid", newUUIDConverter)
	}
*/
package attribute
