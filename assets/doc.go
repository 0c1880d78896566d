// Package assets provides the transferable-asset registry consumed by the
// auction house. The house only ever asks two things of a registry: who
// owns an asset, and to transfer it once at settlement.
package assets
