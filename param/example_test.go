package param_test

import (
	"fmt"

	"github.com/katalvlaran/paramgraph/param"
)

// ExampleSignal shows the base value, the offset and the clamped sum.
func ExampleSignal() {
	gain := param.NewSignal(1, param.Spec{Name: "Gain", Min: 0, Max: 1, Default: 0.5})

	gain.AddObserver(param.NewFuncObserver(func(id param.ID, v float64) {
		fmt.Printf("param %d -> %.2f\n", id, v)
	}))

	gain.SetValue(0.8)
	gain.SetModulation(0.5)
	fmt.Printf("base %.2f, offset %.2f, modulated %.2f\n",
		gain.Value(), gain.Modulation(), gain.ModulatedValue())

	// Output:
	// param 1 -> 0.80
	// base 0.80, offset 0.50, modulated 1.00
}
