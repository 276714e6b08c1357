package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Regressor maps a scaled feature vector to a wait time in minutes.
type Regressor interface {
	Predict(x []float64) (float64, error)
}

// TreeNode is one node of an XGBoost JSON tree dump
// (Booster.dump_model(..., dump_format="json")).
type TreeNode struct {
	NodeID         int         `json:"nodeid"`
	Depth          int         `json:"depth,omitempty"`
	Split          string      `json:"split,omitempty"`
	SplitCondition float64     `json:"split_condition,omitempty"`
	Yes            int         `json:"yes,omitempty"`
	No             int         `json:"no,omitempty"`
	Missing        int         `json:"missing,omitempty"`
	Leaf           *float64    `json:"leaf,omitempty"`
	Children       []*TreeNode `json:"children,omitempty"`
}

// TreeEnsemble is a boosted regression tree model. The prediction is
// BaseScore plus the sum of the leaf reached in every tree.
type TreeEnsemble struct {
	BaseScore float64     `json:"base_score"`
	Objective string      `json:"objective,omitempty"`
	Trees     []*TreeNode `json:"trees"`

	compiled  []compiledTree
	nFeatures int
}

// compiledNode keeps thresholds and leaves in float32, the precision the
// booster trained and evaluates with.
type compiledNode struct {
	leaf      bool
	value     float32
	feature   int
	threshold float32
	yes       int
	no        int
	missing   int
}

type compiledTree []compiledNode

// Bind resolves split feature names against the scaler's column order and
// flattens the trees for evaluation. Split names may be column names or
// positional "f<N>" names when the booster was trained without names.
func (e *TreeEnsemble) Bind(columns []string) error {
	if len(e.Trees) == 0 {
		return errors.New("regressor: ensemble has no trees")
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	compiled := make([]compiledTree, 0, len(e.Trees))
	for ti, root := range e.Trees {
		tree, err := compileTree(root, index, len(columns))
		if err != nil {
			return fmt.Errorf("regressor: tree %d: %w", ti, err)
		}
		compiled = append(compiled, tree)
	}

	e.compiled = compiled
	e.nFeatures = len(columns)
	return nil
}

func compileTree(root *TreeNode, index map[string]int, nFeatures int) (compiledTree, error) {
	if root == nil {
		return nil, errors.New("nil root")
	}

	byID := make(map[int]*TreeNode)
	var collect func(n *TreeNode) error
	collect = func(n *TreeNode) error {
		if _, dup := byID[n.NodeID]; dup {
			return fmt.Errorf("duplicate node id %d", n.NodeID)
		}
		byID[n.NodeID] = n
		for _, c := range n.Children {
			if c == nil {
				return fmt.Errorf("node %d has a nil child", n.NodeID)
			}
			if err := collect(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(root); err != nil {
		return nil, err
	}

	// position 0 is always the root; the rest follow in discovery order
	pos := map[int]int{root.NodeID: 0}
	order := []*TreeNode{root}
	for i := 0; i < len(order); i++ {
		for _, c := range order[i].Children {
			if _, ok := pos[c.NodeID]; !ok {
				pos[c.NodeID] = len(order)
				order = append(order, c)
			}
		}
	}

	tree := make(compiledTree, len(order))
	for i, n := range order {
		if n.Leaf != nil {
			tree[i] = compiledNode{leaf: true, value: float32(*n.Leaf)}
			continue
		}

		feature, err := resolveFeature(n.Split, index, nFeatures)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.NodeID, err)
		}
		yes, okYes := pos[n.Yes]
		no, okNo := pos[n.No]
		if !okYes || !okNo {
			return nil, fmt.Errorf("node %d: branch targets %d/%d not among its children", n.NodeID, n.Yes, n.No)
		}
		missing, ok := pos[n.Missing]
		if !ok {
			missing = yes
		}
		tree[i] = compiledNode{
			feature:   feature,
			threshold: float32(n.SplitCondition),
			yes:       yes,
			no:        no,
			missing:   missing,
		}
	}
	return tree, nil
}

func resolveFeature(split string, index map[string]int, nFeatures int) (int, error) {
	if i, ok := index[split]; ok {
		return i, nil
	}
	if strings.HasPrefix(split, "f") {
		if i, err := strconv.Atoi(split[1:]); err == nil && i >= 0 && i < nFeatures {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}

// Predict evaluates every tree on x. Inputs are narrowed to float32 before
// comparison and leaves are summed in float32, as the booster does.
// Strictly-less-than goes to "yes", NaN follows the "missing" branch.
func (e *TreeEnsemble) Predict(x []float64) (float64, error) {
	if e.compiled == nil {
		return 0, &PredictionError{Err: errors.New("ensemble is not bound to a feature order")}
	}
	if len(x) != e.nFeatures {
		return 0, &PredictionError{Err: fmt.Errorf("expected %d features, got %d", e.nFeatures, len(x))}
	}

	sum := float32(e.BaseScore)
	for _, tree := range e.compiled {
		i := 0
		for steps := 0; !tree[i].leaf; steps++ {
			if steps > len(tree) {
				return 0, &PredictionError{Err: errors.New("tree walk did not terminate")}
			}
			n := tree[i]
			v := x[n.feature]
			switch {
			case math.IsNaN(v):
				i = n.missing
			case float32(v) < n.threshold:
				i = n.yes
			default:
				i = n.no
			}
		}
		sum += tree[i].value
	}

	out := float64(sum)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, &PredictionError{Err: fmt.Errorf("non-finite output %v", out)}
	}
	return out, nil
}
