package auction

import "time"

// Clock supplies the house's view of "now". Phase transitions are never
// timer-driven; every operation compares the clock against the stored
// deadlines when it runs. Production wiring passes time.Now, tests inject a
// manual clock to step across phase boundaries deterministically.
type Clock func() time.Time
