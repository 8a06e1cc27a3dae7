package route

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// solveGenetic runs a memetic genetic search over stop permutations: greedy
// seeding, order crossover, swap/inversion mutation, tournament selection,
// unconditional elitism, and a deterministic 2-opt polish on the final best.
// Infeasible individuals stay in the population carrying the capacity
// penalty; discarding them would collapse diversity early.
func solveGenetic(ctx context.Context, p *problem, cfg Config) model.Route {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	state := stateInitialized
	popSize := cfg.PopulationSize
	pop := make([][]int, popSize)
	pop[0] = p.greedySeed()
	for i := 1; i < popSize; i++ {
		pop[i] = randomPerm(rng, p.n)
	}

	best := append([]int(nil), pop[0]...)
	bestCost := p.cost(p.simulate(best))
	stagnant := 0
	deadline := time.Now().Add(cfg.TimeBudget)
	costs := make([]float64, popSize)

	state = stateSearching
	for gen := 0; gen < cfg.MaxGenerations; gen++ {
		evaluate(p, pop, costs, cfg.EvalWorkers)

		genBest := 0
		for i := 1; i < popSize; i++ {
			if costs[i] < costs[genBest] {
				genBest = i
			}
		}
		if costs[genBest] < bestCost-1e-12 {
			bestCost = costs[genBest]
			best = append(best[:0], pop[genBest]...)
			stagnant = 0
		} else {
			stagnant++
		}
		if cfg.OnGeneration != nil {
			cfg.OnGeneration(gen, bestCost)
		}

		if stagnant >= cfg.StagnationLimit {
			state = stateConverged
			break
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			state = stateBudgetExhausted
			break
		}

		next := make([][]int, 0, popSize)
		// Elitism: the incumbent survives unchanged, so best cost is
		// non-increasing generation over generation.
		next = append(next, append([]int(nil), best...))
		for len(next) < popSize {
			p1 := tournament(rng, pop, costs, cfg.TournamentK)
			p2 := tournament(rng, pop, costs, cfg.TournamentK)
			child := orderCrossover(rng, p1, p2)
			if rng.Float64() < cfg.MutationProb {
				if rng.Intn(2) == 0 {
					mutateSwap(rng, child)
				} else {
					mutateInversion(rng, child)
				}
			}
			next = append(next, child)
		}
		pop = next
	}
	if state == stateSearching {
		// Generation cap reached while still improving.
		state = stateBudgetExhausted
	}

	best = p.twoOptPolish(best)

	status := model.RouteConverged
	if state == stateBudgetExhausted {
		status = model.RouteBudgetExhausted
	}
	return p.buildRoute(best, status)
}

// evaluate scores the population. Individuals are independent within a
// generation, so fitness runs on a small worker pool; generations stay
// sequential. Writes land at fixed indices, keeping results deterministic.
func evaluate(p *problem, pop [][]int, costs []float64, workers int) {
	if workers <= 1 || len(pop) < 32 {
		for i, perm := range pop {
			costs[i] = p.cost(p.simulate(perm))
		}
		return
	}
	var wg sync.WaitGroup
	chunk := (len(pop) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(pop) {
			break
		}
		end := start + chunk
		if end > len(pop) {
			end = len(pop)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				costs[i] = p.cost(p.simulate(pop[i]))
			}
		}(start, end)
	}
	wg.Wait()
}

func randomPerm(rng *rand.Rand, n int) []int {
	perm := make([]int, n)
	for i, v := range rng.Perm(n) {
		perm[i] = v + 1
	}
	return perm
}

// tournament returns the lowest-cost individual among k random picks.
func tournament(rng *rand.Rand, pop [][]int, costs []float64, k int) []int {
	best := rng.Intn(len(pop))
	for i := 1; i < k; i++ {
		c := rng.Intn(len(pop))
		if costs[c] < costs[best] {
			best = c
		}
	}
	return pop[best]
}

// orderCrossover splices a contiguous slice of p1 into the child and fills
// the remainder with p2's stops in their relative order. Offspring are valid
// permutations by construction; no repair pass is needed.
func orderCrossover(rng *rand.Rand, p1, p2 []int) []int {
	n := len(p1)
	if n < 2 {
		return append([]int(nil), p1...)
	}
	a, b := rng.Intn(n), rng.Intn(n)
	if a > b {
		a, b = b, a
	}
	child := make([]int, n)
	taken := make(map[int]bool, b-a)
	for i := a; i < b; i++ {
		child[i] = p1[i]
		taken[p1[i]] = true
	}
	pos := b % n
	for _, v := range p2 {
		if taken[v] {
			continue
		}
		for child[pos] != 0 {
			pos = (pos + 1) % n
		}
		child[pos] = v
		pos = (pos + 1) % n
	}
	return child
}

func mutateSwap(rng *rand.Rand, perm []int) {
	if len(perm) < 2 {
		return
	}
	i, j := rng.Intn(len(perm)), rng.Intn(len(perm))
	perm[i], perm[j] = perm[j], perm[i]
}

// mutateInversion reverses a random segment, the permutation analogue of a
// 2-opt move. Far more effective than plain swaps on geometric tours.
func mutateInversion(rng *rand.Rand, perm []int) {
	if len(perm) < 2 {
		return
	}
	i, j := rng.Intn(len(perm)), rng.Intn(len(perm))
	if i > j {
		i, j = j, i
	}
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		perm[a], perm[b] = perm[b], perm[a]
	}
}
