package chart

import "math"

// EaseFunc maps linear progress in [0,1] to eased progress.
type EaseFunc func(t float64) float64

// ElasticEase names the easing that some desktop hosts cannot animate.
const ElasticEase = "elastic"

var easings = map[string]EaseFunc{
	"linear":    func(t float64) float64 { return t },
	"cubic":     cubicInOut,
	"quad":      quadInOut,
	"sin":       sinInOut,
	"exp":       expInOut,
	"circle":    circleInOut,
	"back":      backInOut,
	"bounce":    bounceOut,
	ElasticEase: elasticOut,
}

// Ease returns the named easing, or cubic in-out for unknown names.
func Ease(name string) EaseFunc {
	if f, ok := easings[name]; ok {
		return f
	}
	return cubicInOut
}

func cubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func quadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func sinInOut(t float64) float64 {
	return (1 - math.Cos(math.Pi*t)) / 2
}

func expInOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return math.Pow(2, 20*t-10) / 2
	}
	return (2 - math.Pow(2, -20*t+10)) / 2
}

func circleInOut(t float64) float64 {
	if t < 0.5 {
		return (1 - math.Sqrt(1-math.Pow(2*t, 2))) / 2
	}
	return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
}

func backInOut(t float64) float64 {
	const c1 = 1.70158
	const c2 = c1 * 1.525
	if t < 0.5 {
		return (math.Pow(2*t, 2) * ((c2+1)*2*t - c2)) / 2
	}
	return (math.Pow(2*t-2, 2)*((c2+1)*(t*2-2)+c2) + 2) / 2
}

func bounceOut(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	}
	t -= 2.625 / d1
	return n1*t*t + 0.984375
}

func elasticOut(t float64) float64 {
	if t <= 0 || t >= 1 {
		return clampUnit(t)
	}
	const period = 0.3
	return math.Pow(2, -10*t)*math.Sin((t-period/4)*(2*math.Pi)/period) + 1
}
