package scene

// Vec3 三维向量
type Vec3 struct {
	X, Y, Z float64
}

// Add 返回两个向量之和
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Quat 四元数，只用于保存旋转
type Quat struct {
	X, Y, Z, W float64
}

var (
	Zero     = Vec3{}
	One      = Vec3{X: 1, Y: 1, Z: 1}
	Identity = Quat{W: 1}
)

// Transform 节点相对父节点的局部变换
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// IdentityTransform 位于原点、无旋转、缩放为 1 的变换
func IdentityTransform() Transform {
	return Transform{Position: Zero, Rotation: Identity, Scale: One}
}
