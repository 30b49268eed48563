package training

import (
	"math"
	"sort"
)

// TreeNode is one node of a depth-limited regression tree. Exported
// fields so fitted trees persist via gob.
type TreeNode struct {
	IsLeaf    bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

// Predict walks the tree for one feature vector.
func (n *TreeNode) Predict(x []float64) float64 {
	node := n
	for !node.IsLeaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type treeParams struct {
	maxDepth      int
	minLeafSize   int
	features      []int // candidate feature subset for this tree
	importanceAcc []float64
}

// buildTree fits a regression tree on target over the given row indices
// by greedy variance-reduction splits.
func buildTree(x [][]float64, target []float64, rows []int, depth int, p *treeParams) *TreeNode {
	if depth >= p.maxDepth || len(rows) < 2*p.minLeafSize {
		return leaf(target, rows)
	}

	feature, threshold, gain := bestSplit(x, target, rows, p)
	if gain <= 0 {
		return leaf(target, rows)
	}
	if p.importanceAcc != nil {
		p.importanceAcc[feature] += gain
	}

	var left, right []int
	for _, r := range rows {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(x, target, left, depth+1, p),
		Right:     buildTree(x, target, right, depth+1, p),
	}
}

func leaf(target []float64, rows []int) *TreeNode {
	sum := 0.0
	for _, r := range rows {
		sum += target[r]
	}
	v := 0.0
	if len(rows) > 0 {
		v = sum / float64(len(rows))
	}
	return &TreeNode{IsLeaf: true, Value: v}
}

// bestSplit scans the candidate features for the threshold with the
// largest sum-of-squares reduction, honoring the minimum leaf size.
func bestSplit(x [][]float64, target []float64, rows []int, p *treeParams) (feature int, threshold, gain float64) {
	feature = -1

	total := 0.0
	totalSq := 0.0
	for _, r := range rows {
		total += target[r]
		totalSq += target[r] * target[r]
	}
	n := float64(len(rows))
	parentSSE := totalSq - total*total/n

	order := make([]int, len(rows))
	for _, f := range p.features {
		copy(order, rows)
		sort.Slice(order, func(i, j int) bool { return x[order[i]][f] < x[order[j]][f] })

		leftSum, leftSq := 0.0, 0.0
		for i := 0; i < len(order)-1; i++ {
			v := target[order[i]]
			leftSum += v
			leftSq += v * v

			if x[order[i]][f] == x[order[i+1]][f] {
				continue // no valid threshold between equal values
			}
			nl := float64(i + 1)
			nr := n - nl
			if int(nl) < p.minLeafSize || int(nr) < p.minLeafSize {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if g := parentSSE - sse; g > gain {
				gain = g
				feature = f
				threshold = (x[order[i]][f] + x[order[i+1]][f]) / 2
			}
		}
	}

	if feature < 0 || math.IsNaN(gain) {
		return -1, 0, 0
	}
	return feature, threshold, gain
}
