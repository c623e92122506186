package models

import (
	"fmt"

	"github.com/born-ml/adcg/internal/tape"
)

// Tray variables, in the order they are declared for every tray.
const (
	trayWater = iota
	trayEthanol
	trayTemperature
	trayVaporWater
	trayVaporEthanol
	trayVaporFlow
	trayVars
)

// Column parameters, declared after the tray variables.
const (
	paramPressure = iota
	paramReflux
	paramDistillate
	paramSteam
	paramVars
)

// Antoine coefficients of ln(p/bar) = a - b/(T + c).
const (
	antoineWaterA   = 10.7169
	antoineWaterB   = 3304.82
	antoineWaterC   = -64.848
	antoineEthanolA = 11.3410
	antoineEthanolB = 3298.51
	antoineEthanolC = -61.819
)

// Equation kinds; dependent kind*trays + i belongs to tray i.
const (
	eqWaterBalance = iota
	eqEthanolBalance
	eqWaterEquilibrium
	eqEthanolEquilibrium
	eqVaporSum
	eqVaporFlow
	eqKinds
)

type column struct {
	rec   *tape.Recorder
	trays int
	x     []tape.Var
	one   tape.Var

	// per tray
	xWater, xEthanol, liquid []tape.Var
}

func (c *column) tray(i, k int) tape.Var {
	return c.x[i*trayVars+k]
}

func (c *column) param(k int) tape.Var {
	return c.x[c.trays*trayVars+k]
}

// Distillation records a reduced water/ethanol distillation column with
// the given number of trays (at least 3). Tray 0 is the condenser and the
// last tray is the reboiler.
//
// The component balances of the trays below the condenser are related, so
// the reboiler balance, whose structure differs, is absent from the last
// iteration of its loop. Equilibrium, vapor sum and vapor flow equations
// repeat over every tray.
func Distillation(trays int) *Model {
	rec := tape.NewRecorder()
	c := &column{
		rec:   rec,
		trays: trays,
		x:     rec.Independent(trays*trayVars + paramVars),
	}
	c.one = rec.Const(1)

	weir := rec.Const(0.6)
	for i := range trays {
		hold := rec.Add(c.tray(i, trayWater), c.tray(i, trayEthanol))
		xw := rec.Div(c.tray(i, trayWater), hold)
		c.xWater = append(c.xWater, xw)
		c.xEthanol = append(c.xEthanol, rec.Sub(c.one, xw))
		c.liquid = append(c.liquid, rec.Mul(weir, rec.Sqrt(hold)))
	}

	ys := make([]tape.Var, 0, eqKinds*trays)
	ys = append(ys, c.balances(c.xWater, trayVaporWater)...)
	ys = append(ys, c.balances(c.xEthanol, trayVaporEthanol)...)
	ys = append(ys, c.equilibrium(c.xWater, trayVaporWater, antoineWaterA, antoineWaterB, antoineWaterC)...)
	ys = append(ys, c.equilibrium(c.xEthanol, trayVaporEthanol, antoineEthanolA, antoineEthanolB, antoineEthanolC)...)
	for i := range trays {
		ys = append(ys, rec.Sub(rec.Sub(c.one, c.tray(i, trayVaporWater)), c.tray(i, trayVaporEthanol)))
	}
	scale := rec.Const(400)
	for i := range trays {
		heat := rec.Div(rec.Mul(c.param(paramSteam), c.param(paramReflux)), c.param(paramDistillate))
		flow := rec.Mul(c.tray(i, trayVaporFlow), rec.Tanh(rec.Div(c.tray(i, trayTemperature), scale)))
		ys = append(ys, rec.Sub(flow, heat))
	}

	related := make([][]int, eqKinds)
	for kind := range related {
		first := 0
		if kind == eqWaterBalance || kind == eqEthanolBalance {
			first = 1
		}
		for i := first; i < trays; i++ {
			related[kind] = append(related[kind], kind*trays+i)
		}
	}

	return &Model{
		Name:    "distillation",
		Tape:    rec.Dependent(ys...),
		Related: related,
		Point:   columnPoint(trays),
		Labels:  columnLabels(trays),
	}
}

// balances records the component balance of every tray for the liquid
// fractions x and the vapor fraction variable y.
func (c *column) balances(x []tape.Var, y int) []tape.Var {
	rec := c.rec
	n := c.trays
	out := func(i int) tape.Var { return rec.Mul(c.liquid[i], x[i]) }
	up := func(i int) tape.Var { return rec.Mul(c.tray(i, y), c.tray(i, trayVaporFlow)) }

	res := make([]tape.Var, n)
	drawn := rec.Add(c.param(paramReflux), c.param(paramDistillate))
	res[0] = rec.Sub(up(1), rec.Mul(drawn, x[0]))
	for i := 1; i < n-1; i++ {
		res[i] = rec.Sub(rec.Sub(rec.Add(out(i-1), up(i+1)), out(i)), up(i))
	}
	res[n-1] = rec.Sub(rec.Sub(out(n-2), out(n-1)), up(n-1))
	return res
}

// equilibrium records y_i = x_i*psat(T_i)/P for every tray.
func (c *column) equilibrium(x []tape.Var, y int, a, b, c0 float64) []tape.Var {
	rec := c.rec
	ca, cb, cc := rec.Const(a), rec.Const(b), rec.Const(c0)
	res := make([]tape.Var, c.trays)
	for i := range res {
		psat := rec.Exp(rec.Sub(ca, rec.Div(cb, rec.Add(c.tray(i, trayTemperature), cc))))
		res[i] = rec.Sub(c.tray(i, y), rec.Div(rec.Mul(x[i], psat), c.param(paramPressure)))
	}
	return res
}

func columnPoint(trays int) []float64 {
	x := make([]float64, 0, trays*trayVars+paramVars)
	for i := range trays {
		f := float64(i)
		x = append(x,
			2+0.1*f,
			1.5/(1+0.05*f),
			350+2*f,
			0.4+0.01*f,
			0.6/(1+0.02*f),
			1+0.05*f)
	}
	return append(x, 1.2, 2, 0.5, 3)
}

func columnLabels(trays int) []string {
	names := [trayVars]string{"mWater", "mEthanol", "T", "yWater", "yEthanol", "V"}
	labels := make([]string, 0, trays*trayVars+paramVars)
	for i := range trays {
		for _, name := range names {
			labels = append(labels, fmt.Sprintf("%s__%d", name, i))
		}
	}
	return append(labels, "P", "reflux", "Fdistillate", "Qsteam")
}
