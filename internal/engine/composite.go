package engine

import (
	"context"

	"mini-scene/internal/resource"

	"github.com/pkg/errors"
)

// NodeID indexes a node of a CompositeModel.
type NodeID int

// Root is the node created with the composite.
const Root NodeID = 0

var ErrInvalidNode = errors.New("invalid scene node")

// SceneNode is a value tree used to build a CompositeModel in one call.
type SceneNode struct {
	Model    Entity
	Children []SceneNode
}

type sceneNode struct {
	model    Entity
	children []NodeID
}

// CompositeModel is a hierarchy of entities rendered under the
// composite's own transform. Nodes live in an arena and are only ever
// appended, so the hierarchy cannot contain a cycle.
type CompositeModel struct {
	Base
	nodes []sceneNode
}

func NewCompositeModel(root Entity) *CompositeModel {
	if root == nil {
		panic("engine: nil root model")
	}
	return &CompositeModel{nodes: []sceneNode{{model: root}}}
}

func NewCompositeModelFromTree(tree SceneNode) (*CompositeModel, error) {
	if tree.Model == nil {
		return nil, errors.New("scene tree has no root model")
	}
	c := NewCompositeModel(tree.Model)
	if err := c.addTree(Root, tree.Children); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CompositeModel) addTree(parent NodeID, children []SceneNode) error {
	for _, child := range children {
		id, err := c.AddChild(parent, child.Model)
		if err != nil {
			return err
		}
		if err := c.addTree(id, child.Children); err != nil {
			return err
		}
	}
	return nil
}

// AddChild appends model as the last child of parent.
func (c *CompositeModel) AddChild(parent NodeID, model Entity) (NodeID, error) {
	if !c.valid(parent) {
		return 0, errors.Wrapf(ErrInvalidNode, "parent %d", parent)
	}
	if model == nil {
		return 0, errors.Errorf("nil model under node %d", parent)
	}
	id := NodeID(len(c.nodes))
	c.nodes = append(c.nodes, sceneNode{model: model})
	c.nodes[parent].children = append(c.nodes[parent].children, id)
	return id, nil
}

func (c *CompositeModel) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(c.nodes)
}

// Model returns the entity at id, or nil for an unknown id.
func (c *CompositeModel) Model(id NodeID) Entity {
	if !c.valid(id) {
		return nil
	}
	return c.nodes[id].model
}

func (c *CompositeModel) Children(id NodeID) []NodeID {
	if !c.valid(id) {
		return nil
	}
	return append([]NodeID(nil), c.nodes[id].children...)
}

func (c *CompositeModel) Len() int { return len(c.nodes) }

// Init initialises every node in turn and stops at the first failure.
func (c *CompositeModel) Init(ctx context.Context, resources *resource.Manager) error {
	for id, n := range c.nodes {
		if err := n.model.Init(ctx, resources); err != nil {
			return errors.Wrapf(err, "node %d", id)
		}
	}
	return nil
}

func (c *CompositeModel) Update(dt float64) {
	for _, n := range c.nodes {
		n.model.Update(dt)
	}
}

// Render draws the root, then each subtree under the root's matrix. Every
// push is matched by a pop before Render returns.
func (c *CompositeModel) Render(b RenderBackend) {
	b.PushMatrix(c.MakeMatrix())
	c.renderNode(b, Root)
	b.PopMatrix()
}

func (c *CompositeModel) renderNode(b RenderBackend, id NodeID) {
	n := &c.nodes[id]
	n.model.Render(b)
	if len(n.children) == 0 {
		return
	}
	b.PushMatrix(n.model.MakeMatrix())
	for _, child := range n.children {
		c.renderNode(b, child)
	}
	b.PopMatrix()
}

func (c *CompositeModel) Dispose() {
	for _, n := range c.nodes {
		dispose(n.model)
	}
}
