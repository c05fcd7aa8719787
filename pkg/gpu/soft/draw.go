package soft

import (
	"github.com/taigrr/plyview/pkg/gpu"
	"github.com/taigrr/plyview/pkg/math3d"
	"github.com/taigrr/plyview/pkg/render"
)

// DrawElements runs the fixed pipeline over the first count indices of the
// bound vertex array. The whole draw is skipped when the array's bounding box
// is outside the frustum of the MVP uniform.
func (d *Device) DrawElements(count int) {
	prog := d.programs[d.curProgram]
	if prog == nil {
		d.fail(ErrInvalidOperation, "draw with no program in use")
		return
	}
	va := d.arrays[d.curArray]
	if va == nil {
		d.fail(ErrInvalidOperation, "draw with no vertex array bound")
		return
	}
	pos := d.buffers[va.attribs[gpu.PositionLocation]]
	elems := d.buffers[va.elements]
	if pos == nil || elems == nil || pos.size != 3 {
		d.fail(ErrInvalidOperation, "draw with incomplete vertex array %d", d.curArray)
		return
	}
	if count > len(elems.indices) {
		d.fail(ErrInvalidOperation, "draw %d indices from a buffer of %d", count, len(elems.indices))
		return
	}

	mvp, ok := prog.mat4s[gpu.UniformMVP]
	if !ok {
		mvp = math3d.Identity()
	}
	if !render.NewFrustumFromMatrix(mvp).IntersectAABB(va.bounds) {
		d.stats.Culled++
		return
	}
	d.stats.Draws++

	uvs := d.buffers[va.attribs[gpu.TexCoordLocation]]
	if uvs != nil && uvs.size != 2 {
		uvs = nil
	}
	var tex *render.Texture
	if unit := prog.ints[gpu.UniformTexture]; unit >= 0 && unit < maxTextureUnits {
		tex = d.textures[d.units[unit]]
	}

	nverts := uint32(len(pos.floats) / 3)
	vertex := func(i uint32) render.ClipVertex {
		p := pos.floats[i*3 : i*3+3]
		v := render.ClipVertex{
			Pos: mvp.MulVec4(math3d.V4(float64(p[0]), float64(p[1]), float64(p[2]), 1)),
		}
		if uvs != nil && int(i)*2+1 < len(uvs.floats) {
			v.UV = math3d.V2(float64(uvs.floats[i*2]), float64(uvs.floats[i*2+1]))
		}
		return v
	}

	for t := 0; t+2 < count; t += 3 {
		i0, i1, i2 := elems.indices[t], elems.indices[t+1], elems.indices[t+2]
		if i0 >= nverts || i1 >= nverts || i2 >= nverts {
			d.fail(ErrInvalidOperation, "index out of range in triangle %d", t/3)
			return
		}
		tri := [3]render.ClipVertex{vertex(i0), vertex(i1), vertex(i2)}
		if d.wireframe {
			d.rast.DrawLine(tri[0].Pos, tri[1].Pos, d.WireColor)
			d.rast.DrawLine(tri[1].Pos, tri[2].Pos, d.WireColor)
			d.rast.DrawLine(tri[2].Pos, tri[0].Pos, d.WireColor)
			d.stats.Triangles++
			continue
		}
		if d.rast.DrawTriangle(tri, tex) {
			d.stats.Triangles++
		}
	}
}
