package scoring

import (
	"math"
	"testing"

	"overdrive/sim/internal/config"
)

const tick = 1.0 / 60

func riskTuning() config.RiskTuning { return config.DefaultTuning().Risk }

func TestRiskDecaysExponentiallyWhenIdle(t *testing.T) {
	r := NewRiskState(riskTuning())
	r.AddBonus(5, 0)
	start := r.Value()

	r.Update(false, 0, 1.0)
	want := start * math.Exp(-riskTuning().Decay)
	if math.Abs(r.Value()-want) > 1e-9 {
		t.Fatalf("expected decay to %.4f, got %.4f", want, r.Value())
	}
}

func TestBrakeHalvesRiskAndSuspendsDecay(t *testing.T) {
	r := NewRiskState(riskTuning())
	r.AddBonus(6, 0)
	before := r.Value()

	//1.- The brake tick itself applies the penalty, not the decay.
	r.Update(true, 0, tick)
	if math.Abs(r.Value()-before*0.5) > 1e-9 {
		t.Fatalf("expected half of %.3f, got %.3f", before, r.Value())
	}
	if !r.BrakeCooldownActive() {
		t.Fatal("brake must open the cooldown window")
	}

	//2.- Decay stays suspended for the rest of the cooldown.
	frozen := r.Value()
	for elapsed := tick; elapsed < riskTuning().BrakeCooldown-tick; elapsed += tick {
		r.Update(false, 0, tick)
	}
	if r.Value() != frozen {
		t.Fatalf("decay ran during the cooldown: %.4f vs %.4f", r.Value(), frozen)
	}

	//3.- Once the window closes the decay resumes.
	r.Update(false, 0, 1.0)
	if r.Value() >= frozen {
		t.Fatal("decay must resume after the cooldown")
	}
}

func TestRiskNeverExceedsDamageReducedCap(t *testing.T) {
	tun := riskTuning()
	r := NewRiskState(tun)

	lastCap := math.Inf(1)
	for step := 0; step <= 10; step++ {
		damage := float64(step) / 10
		cap := r.Cap(damage)
		//1.- The cap is monotone non-increasing as damage accumulates.
		if cap > lastCap {
			t.Fatalf("cap grew from %.3f to %.3f at damage %.1f", lastCap, cap, damage)
		}
		lastCap = cap

		//2.- No amount of bonus pushes the value past it.
		r.AddBonus(1000, damage)
		if r.Value() > cap+1e-12 {
			t.Fatalf("value %.3f above cap %.3f at damage %.1f", r.Value(), cap, damage)
		}
	}
	//3.- At full damage the cap is the shrunk base, never below the floor.
	want := math.Max(tun.CapFloor, tun.BaseCap*(1-tun.CapDamageLoss))
	if math.Abs(r.Cap(1)-want) > 1e-9 {
		t.Fatalf("fully damaged cap %.3f, want %.3f", r.Cap(1), want)
	}
}

func TestRebuildRateShrinksWithDamage(t *testing.T) {
	r := NewRiskState(riskTuning())
	r.AddBonus(1, 0)
	healthyGain := r.Value()

	r.Reset()
	r.AddBonus(1, 0.8)
	damagedGain := r.Value()
	if damagedGain >= healthyGain {
		t.Fatalf("damaged rebuild %.3f must trail healthy %.3f", damagedGain, healthyGain)
	}
}

func TestComboAmplifiesAndExpires(t *testing.T) {
	tun := riskTuning()
	c := NewCombo(tun)

	//1.- The first event pays the base amount and starts the chain.
	if got := c.Amplify(1); got != 1 {
		t.Fatalf("first event must pay base, got %.3f", got)
	}
	if got := c.Amplify(1); math.Abs(got-(1+tun.ComboStep)) > 1e-9 {
		t.Fatalf("second event expected %.3f, got %.3f", 1+tun.ComboStep, got)
	}

	//2.- The counter saturates at its cap.
	for i := 0; i < 3*tun.ComboMax; i++ {
		c.Amplify(1)
	}
	if c.Count() != tun.ComboMax {
		t.Fatalf("combo count %d must cap at %d", c.Count(), tun.ComboMax)
	}

	//3.- Silence past the window drops the chain.
	c.Update(tun.ComboWindow + tick)
	if c.Count() != 0 {
		t.Fatalf("expired combo must reset, got count %d", c.Count())
	}
	if got := c.Amplify(1); got != 1 {
		t.Fatalf("post-expiry event must pay base, got %.3f", got)
	}
}
