package rtsync

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fastrand"
)

// Randomized mixed workload: concurrent scoped reads, snapshot copies,
// updates and reclaims on one object must stay consistent.
func TestRCUStressMixed(t *testing.T) {
	type pair struct{ a, c uint64 }

	const goroutines = 8

	o := NewRCU(pair{})
	var stop atomic.Bool
	var published atomic.Uint64

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			var rng fastrand.RNG
			rng.Seed(fastrand.Uint32())
			r := o.Reader()

			for !stop.Load() {
				switch n := rng.Uint32n(100); {
				case n < 70:
					p := r.ReadLock()
					v := p.Get()
					if v.a != v.c {
						t.Errorf("torn read: a=%d c=%d", v.a, v.c)
						p.Unlock()
						return
					}
					p.Unlock()
				case n < 80:
					// nested scopes
					outer := r.ReadLock()
					inner := r.ReadLock()
					if outer.Get() != inner.Get() {
						t.Errorf("nested scope observed a different snapshot")
					}
					inner.Unlock()
					outer.Unlock()
				case n < 95:
					i := published.Add(1)
					o.Update(pair{a: i, c: i})
				default:
					o.Reclaim()
				}
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	stop.Store(true)
	wg.Wait()

	o.Reclaim()
	if n := o.Zombies(); n != 0 {
		t.Fatalf("expected empty retire list after final reclaim, got %d", n)
	}
}

func BenchmarkRCUReadLock(b *testing.B) {
	o := NewRCU(uint64(1))

	b.RunParallel(func(pb *testing.PB) {
		r := o.Reader()
		for pb.Next() {
			p := r.ReadLock()
			_ = *p.Get()
			p.Unlock()
		}
	})
}

func BenchmarkRCUValue(b *testing.B) {
	o := NewRCU(uint64(1))

	b.RunParallel(func(pb *testing.PB) {
		r := o.Reader()
		for pb.Next() {
			_ = r.Value()
		}
	})
}

func BenchmarkRCUUpdateReclaim(b *testing.B) {
	o := NewRCU(uint64(0))

	for i := 0; i < b.N; i++ {
		o.Update(uint64(i))
		if i%64 == 0 {
			o.Reclaim()
		}
	}
}

// Read-mostly mix, the intended deployment profile.
func BenchmarkRCUMixed(b *testing.B) {
	o := NewRCU(uint64(0))

	b.RunParallel(func(pb *testing.PB) {
		var rng fastrand.RNG
		rng.Seed(fastrand.Uint32())
		r := o.Reader()

		for pb.Next() {
			switch n := rng.Uint32n(1000); {
			case n < 990:
				p := r.ReadLock()
				_ = *p.Get()
				p.Unlock()
			case n < 999:
				o.Update(uint64(rng.Uint32()))
			default:
				o.Reclaim()
			}
		}
	})
}

func BenchmarkSeqlockLoad(b *testing.B) {
	obj := NewSeqlock([4]uint64{1, 2, 3, 4})

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = obj.Load()
		}
	})
}

func BenchmarkSpinMutex(b *testing.B) {
	var (
		m SpinMutex
		n uint64
	)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Lock()
			n++
			m.Unlock()
		}
	})
}
