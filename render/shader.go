// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

// WGSL sources for the quad brush. One shader pair serves both solid
// fills and textured quads: a per-vertex sampler slot of -1 selects
// the solid path, 0..7 select one of the bound atlas textures. The
// color matrix of the current batch is applied in the fragment stage.

const brushVertexWGSL = `
struct Uniforms {
    viewport: vec4<f32>,
    color_scale: vec4<f32>,
    color_offset: vec4<f32>,
    alpha: f32,
};

@group(0) @binding(0) var<uniform> u: Uniforms;

struct VertexIn {
    @location(0) position: vec2<f32>,
    @location(1) texcoord: vec2<f32>,
    @location(2) tint: vec4<f32>,
    @location(3) slot: f32,
};

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) texcoord: vec2<f32>,
    @location(1) tint: vec4<f32>,
    @location(2) slot: f32,
};

@vertex
fn vs_main(in: VertexIn) -> VertexOut {
    var out: VertexOut;
    let ndc = vec2<f32>(
        in.position.x / u.viewport.z * 2.0 - 1.0,
        1.0 - in.position.y / u.viewport.w * 2.0,
    );
    out.position = vec4<f32>(ndc, 0.0, 1.0);
    out.texcoord = in.texcoord;
    out.tint = in.tint;
    out.slot = in.slot;
    return out;
}
`

const brushFragmentWGSL = `
struct Uniforms {
    viewport: vec4<f32>,
    color_scale: vec4<f32>,
    color_offset: vec4<f32>,
    alpha: f32,
};

@group(0) @binding(0) var<uniform> u: Uniforms;
@group(0) @binding(1) var samp: sampler;
@group(0) @binding(2) var tex0: texture_2d<f32>;
@group(0) @binding(3) var tex1: texture_2d<f32>;
@group(0) @binding(4) var tex2: texture_2d<f32>;
@group(0) @binding(5) var tex3: texture_2d<f32>;
@group(0) @binding(6) var tex4: texture_2d<f32>;
@group(0) @binding(7) var tex5: texture_2d<f32>;
@group(0) @binding(8) var tex6: texture_2d<f32>;
@group(0) @binding(9) var tex7: texture_2d<f32>;

// textureSampleLevel keeps sampling legal under the non-uniform
// control flow of the slot switch; atlas tiles carry no mips.
fn sample_slot(slot: i32, uv: vec2<f32>) -> vec4<f32> {
    switch slot {
        case 0: { return textureSampleLevel(tex0, samp, uv, 0.0); }
        case 1: { return textureSampleLevel(tex1, samp, uv, 0.0); }
        case 2: { return textureSampleLevel(tex2, samp, uv, 0.0); }
        case 3: { return textureSampleLevel(tex3, samp, uv, 0.0); }
        case 4: { return textureSampleLevel(tex4, samp, uv, 0.0); }
        case 5: { return textureSampleLevel(tex5, samp, uv, 0.0); }
        case 6: { return textureSampleLevel(tex6, samp, uv, 0.0); }
        default: { return textureSampleLevel(tex7, samp, uv, 0.0); }
    }
}

@fragment
fn fs_main(
    @location(0) texcoord: vec2<f32>,
    @location(1) tint: vec4<f32>,
    @location(2) slot: f32,
) -> @location(0) vec4<f32> {
    var color = tint;
    if (slot >= 0.0) {
        color = sample_slot(i32(slot), texcoord) * tint;
    }
    color = color * u.color_scale + u.color_offset;
    color.a = color.a * u.alpha;
    return color;
}
`
